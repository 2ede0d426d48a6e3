package game

import "math/big"

// ApplyTap credits earnings for a single input event carrying touches
// simultaneous touch points. Each touch point earns TapEarnings, so a
// three-finger tap credits three times. Returns the total credited.
func (s *State) ApplyTap(eco Economy, touches int) *big.Int {
	if touches < 1 {
		touches = 1
	}
	earned := eco.TapEarnings(s.ClickPower, s.Rebirths)
	earned.Mul(earned, big.NewInt(int64(touches)))
	s.Balance.Add(s.Balance, earned)
	return earned
}

// BuyUpgrade spends the current upgrade price to raise click power by one.
// Insufficient funds is a refusal, not an error: the state is untouched and
// false is returned.
func (s *State) BuyUpgrade(eco Economy) bool {
	price := eco.UpgradePrice(s.ClickPower)
	if s.Balance.Cmp(price) < 0 {
		return false
	}
	s.Balance.Sub(s.Balance, price)
	s.ClickPower++
	return true
}

// BuyRebirthsMax greedily buys rebirths while the balance covers the price,
// recomputing the price after each purchase. Rebirth here is additive
// prestige: it only deducts the price and increments the multiplier, it
// never resets balance or click power. Returns the number bought.
func (s *State) BuyRebirthsMax(eco Economy) int {
	bought := 0
	for {
		price := eco.RebirthPrice(s.Rebirths)
		if price.Sign() <= 0 || s.Balance.Cmp(price) < 0 {
			return bought
		}
		s.Balance.Sub(s.Balance, price)
		s.Rebirths++
		bought++
	}
}

// GrantReward credits a claimed quest reward.
func (s *State) GrantReward(amount int64) {
	if amount <= 0 {
		return
	}
	s.Balance.Add(s.Balance, big.NewInt(amount))
}
