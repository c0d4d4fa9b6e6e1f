package domain

// UpdateStreak засчитывает сегодняшнюю активность в серию.
// Повторный вызов в тот же день ничего не меняет.
func (p *Progress) UpdateStreak(today Day) {
	if p.LastActivityDate != nil && *p.LastActivityDate == today {
		return
	}

	if p.LastActivityDate != nil && *p.LastActivityDate == today.Prev() {
		p.Streak++
	} else {
		p.Streak = 1
	}

	if p.Streak > p.LongestStreak {
		p.LongestStreak = p.Streak
	}

	d := today
	p.LastActivityDate = &d
}

// DisplayStreak: серия для отображения. Если последний раз был раньше чем вчера,
// серия уже прервана -> показываем 0
func (p *Progress) DisplayStreak(today Day) (streak int, activeToday bool) {
	if p.LastActivityDate == nil {
		return 0, false
	}
	switch last := *p.LastActivityDate; {
	case last == today:
		return p.Streak, true
	case last == today.Prev():
		return p.Streak, false
	default:
		return 0, false
	}
}
