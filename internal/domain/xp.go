package domain

// LevelFor: уровень всегда выводится из XP, отдельно не задаётся
func LevelFor(xp int) int {
	return xp/XPPerLevel + 1
}

// AddXP начисляет опыт и пересчитывает уровень. За один вызов уровень может
// вырасти больше чем на 1.
func (p *Progress) AddXP(amount int) (bool, error) {
	if amount < 0 {
		return false, ErrInvalidAmount
	}
	p.XP += amount
	newLevel := LevelFor(p.XP)
	if newLevel > p.Level {
		p.Level = newLevel
		return true, nil
	}
	return false, nil
}
