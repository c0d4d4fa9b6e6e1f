package domain

// RecordActivity увеличивает счётчики за день. На одну дату ровно одна запись,
// записи никогда не удаляются.
func (p *Progress) RecordActivity(day Day, submissions, points int) error {
	if submissions < 0 || points < 0 {
		return ErrInvalidAmount
	}
	for i := range p.ActivityLogs {
		if p.ActivityLogs[i].Date == day {
			p.ActivityLogs[i].Submissions += submissions
			p.ActivityLogs[i].Points += points
			return nil
		}
	}
	p.ActivityLogs = append(p.ActivityLogs, ActivityLog{
		UserID:      p.UserID,
		Date:        day,
		Submissions: submissions,
		Points:      points,
	})
	return nil
}

func (p *Progress) ActivityOn(day Day) (ActivityLog, bool) {
	for _, l := range p.ActivityLogs {
		if l.Date == day {
			return l, true
		}
	}
	return ActivityLog{}, false
}

// ActivitySince: данные для тепловой карты активности (from включительно)
func (p *Progress) ActivitySince(from Day) []ActivityLog {
	out := make([]ActivityLog, 0, len(p.ActivityLogs))
	for _, l := range p.ActivityLogs {
		if !l.Date.Before(from) {
			out = append(out, l)
		}
	}
	return out
}
