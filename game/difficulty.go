package game

// Tier describes how hard orders are once the cumulative order count
// reaches a threshold.
type Tier struct {
	Ingredients      int     `json:"ingredients"`
	TimerMultiplier  float64 `json:"timerMultiplier"`
	HPDrainPerSecond float64 `json:"hpDrainPerSecond"`
}

type tierStep struct {
	minOrders int
	tier      Tier
}

// Sorted ascending by minOrders.
var difficultyTiers = []tierStep{
	{minOrders: 0, tier: Tier{Ingredients: 3, TimerMultiplier: 2.2, HPDrainPerSecond: 0.4}},
	{minOrders: 6, tier: Tier{Ingredients: 4, TimerMultiplier: 2.0, HPDrainPerSecond: 0.8}},
	{minOrders: 10, tier: Tier{Ingredients: 5, TimerMultiplier: 1.8, HPDrainPerSecond: 1.2}},
	{minOrders: 15, tier: Tier{Ingredients: 6, TimerMultiplier: 1.6, HPDrainPerSecond: 1.6}},
	{minOrders: 20, tier: Tier{Ingredients: 7, TimerMultiplier: 1.4, HPDrainPerSecond: 2.2}},
	{minOrders: 25, tier: Tier{Ingredients: 8, TimerMultiplier: 0.8, HPDrainPerSecond: 3.2}},
	{minOrders: 30, tier: Tier{Ingredients: 9, TimerMultiplier: 0.6, HPDrainPerSecond: 4.5}},
	{minOrders: 45, tier: Tier{Ingredients: 11, TimerMultiplier: 0.46, HPDrainPerSecond: 6.0}},
	{minOrders: 50, tier: Tier{Ingredients: 12, TimerMultiplier: 0.38, HPDrainPerSecond: 8.0}},
}

// TierFor returns the tier of the highest threshold not above orderIndex.
func TierFor(orderIndex int) Tier {
	for i := len(difficultyTiers) - 1; i >= 0; i-- {
		if orderIndex >= difficultyTiers[i].minOrders {
			return difficultyTiers[i].tier
		}
	}
	return difficultyTiers[0].tier
}
