package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"codenest/internal/application/verifier"
	"codenest/internal/domain"
	"codenest/internal/observability"
	"codenest/internal/platform/logger"
)

const (
	maxUpdateAttempts       = 3
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

type ProgressRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Progress, error)
	Update(ctx context.Context, userID uuid.UUID, fn func(p *domain.Progress) error) (*domain.Progress, error)
	GetLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	GetUserRank(ctx context.Context, userID uuid.UUID) (int, error)
}

type TopicRepository interface {
	Roadmap(ctx context.Context, language domain.Language) ([]domain.Topic, error)
	Get(ctx context.Context, language domain.Language, order int) (*domain.Topic, []domain.Topic, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Reward: итог начисления, который показываем пользователю
type Reward struct {
	XPGained  int  `json:"xpGained"`
	LeveledUp bool `json:"leveledUp"`
	NewXP     int  `json:"newXP"`
	NewLevel  int  `json:"newLevel"`
}

type ProgressUseCase struct {
	progress ProgressRepository
	topics   TopicRepository
	users    UserReader
	now      func() time.Time
	log      *logger.Logger
}

func NewProgressUseCase(pr ProgressRepository, tr TopicRepository, ur UserReader, log *logger.Logger) *ProgressUseCase {
	return &ProgressUseCase{
		progress: pr,
		topics:   tr,
		users:    ur,
		now:      time.Now,
		log:      log,
	}
}

func (uc *ProgressUseCase) today() domain.Day {
	return domain.DayOf(uc.now())
}

// update: read-modify-write с повтором при конфликте версий
func (uc *ProgressUseCase) update(ctx context.Context, userID uuid.UUID, fn func(p *domain.Progress) error) (*domain.Progress, error) {
	var lastErr error
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		p, err := uc.progress.Update(ctx, userID, fn)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, domain.ErrConcurrentUpdate) {
			return nil, err
		}
		lastErr = err
		observability.ObserveProgressConflict()
		uc.log.Debug("progress update conflict, retrying", "user_id", userID, "attempt", attempt)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
	}
	uc.log.Warn("progress update gave up", "user_id", userID, "attempts", maxUpdateAttempts)
	return nil, lastErr
}

// OnExecution: награда за любой запуск кода, независимо от результата
func (uc *ProgressUseCase) OnExecution(ctx context.Context, userID uuid.UUID, language domain.Language) (Reward, error) {
	today := uc.today()
	var reward Reward
	_, err := uc.update(ctx, userID, func(p *domain.Progress) error {
		p.UpdateStreak(today)
		if err := p.RecordActivity(today, 1, domain.ExecutionPoints); err != nil {
			return err
		}
		leveledUp, err := p.AddXP(domain.ExecutionXP)
		if err != nil {
			return err
		}
		p.Skills.Bump(domain.SkillSyntax, 1)
		reward = Reward{XPGained: domain.ExecutionXP, LeveledUp: leveledUp, NewXP: p.XP, NewLevel: p.Level}
		return nil
	})
	if err != nil {
		return Reward{}, err
	}
	if reward.LeveledUp {
		observability.ObserveLevelUp()
	}
	uc.log.Debug("execution rewarded", "user_id", userID, "language", language, "xp", reward.NewXP)
	return reward, nil
}

// OnSubmission: отработавшая попытка идёт в серию и активность (без очков),
// тема засчитывается только если прошли все тесты. Всё одной записью.
func (uc *ProgressUseCase) OnSubmission(ctx context.Context, userID uuid.UUID, topic *domain.Topic, run *verifier.SuiteResult) (*domain.CompletionResult, error) {
	if run == nil {
		return nil, nil
	}
	today := uc.today()
	var result *domain.CompletionResult
	_, err := uc.update(ctx, userID, func(p *domain.Progress) error {
		result = nil
		p.UpdateStreak(today)
		if err := p.RecordActivity(today, 1, 0); err != nil {
			return err
		}
		if !run.AllPassed {
			return nil
		}
		r, err := p.CompleteTopic(topic.Order, domain.TopicCompletionXP)
		if err != nil {
			return err
		}
		result = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result != nil && !result.AlreadyCompleted {
		observability.ObserveTopicCompletion()
		if result.LeveledUp {
			observability.ObserveLevelUp()
		}
		uc.log.Info("topic completed", "user_id", userID, "order", topic.Order, "xp", result.NewXP, "level", result.NewLevel)
	}
	return result, nil
}

func (uc *ProgressUseCase) completeTopic(ctx context.Context, userID uuid.UUID, order int) (*domain.CompletionResult, error) {
	var result domain.CompletionResult
	_, err := uc.update(ctx, userID, func(p *domain.Progress) error {
		r, err := p.CompleteTopic(order, domain.TopicCompletionXP)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !result.AlreadyCompleted {
		observability.ObserveTopicCompletion()
		if result.LeveledUp {
			observability.ObserveLevelUp()
		}
		uc.log.Info("topic completed", "user_id", userID, "order", order, "xp", result.NewXP, "level", result.NewLevel)
	}
	return &result, nil
}

type CompleteTopicOutput struct {
	CompletedTopics []int
	Result          domain.CompletionResult
}

// CompleteTopic: ручная отметка темы. Повторный вызов возвращает alreadyCompleted.
func (uc *ProgressUseCase) CompleteTopic(ctx context.Context, userID uuid.UUID, order int) (*CompleteTopicOutput, error) {
	res, err := uc.completeTopic(ctx, userID, order)
	if err != nil {
		return nil, err
	}
	completed, err := uc.Completed(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &CompleteTopicOutput{CompletedTopics: completed, Result: *res}, nil
}

func (uc *ProgressUseCase) Completed(ctx context.Context, userID uuid.UUID) ([]int, error) {
	p, err := uc.progress.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return p.CompletedOrders(), nil
}

// Grant: бонус за работу с тьютором
func (uc *ProgressUseCase) Grant(ctx context.Context, userID uuid.UUID, xp int, skill domain.Skill, delta int) (Reward, error) {
	var reward Reward
	_, err := uc.update(ctx, userID, func(p *domain.Progress) error {
		leveledUp, err := p.AddXP(xp)
		if err != nil {
			return err
		}
		p.Skills.Bump(skill, delta)
		reward = Reward{XPGained: xp, LeveledUp: leveledUp, NewXP: p.XP, NewLevel: p.Level}
		return nil
	})
	if err != nil {
		return Reward{}, err
	}
	if reward.LeveledUp {
		observability.ObserveLevelUp()
	}
	return reward, nil
}

type TopicView struct {
	domain.Topic
	Unlocked  bool `json:"unlocked"`
	Completed bool `json:"completed"`
}

// Roadmap: темы языка с признаками открыта/пройдена для пользователя
func (uc *ProgressUseCase) Roadmap(ctx context.Context, userID uuid.UUID, language domain.Language) ([]TopicView, error) {
	roadmap, err := uc.topics.Roadmap(ctx, language)
	if err != nil {
		return nil, err
	}
	p, err := uc.progress.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	completed := p.CompletedSet()
	views := make([]TopicView, 0, len(roadmap))
	for _, t := range roadmap {
		views = append(views, TopicView{
			Topic:     t,
			Unlocked:  domain.IsUnlocked(t.Order, completed, roadmap),
			Completed: completed[t.Order],
		})
	}
	return views, nil
}

func (uc *ProgressUseCase) Topic(ctx context.Context, userID uuid.UUID, language domain.Language, order int) (*TopicView, error) {
	topic, roadmap, err := uc.topics.Get(ctx, language, order)
	if err != nil {
		return nil, err
	}
	p, err := uc.progress.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	completed := p.CompletedSet()
	return &TopicView{
		Topic:     *topic,
		Unlocked:  domain.IsUnlocked(order, completed, roadmap),
		Completed: completed[order],
	}, nil
}

type ProfileStats struct {
	Username      string              `json:"username"`
	Bio           string              `json:"bio"`
	XP            int                 `json:"xp"`
	Level         int                 `json:"level"`
	NextLevelXP   int                 `json:"nextLevelXP"`
	Streak        int                 `json:"streak"`
	ActiveToday   bool                `json:"activeToday"`
	LongestStreak int                 `json:"longestStreak"`
	Rank          int                 `json:"rank"`
	Badges        []domain.Badge      `json:"badges"`
	SkillMetrics  domain.SkillMetrics `json:"skillMetrics"`
}

type ActivityPoint struct {
	Date        domain.Day `json:"date"`
	Submissions int        `json:"submissions"`
	Points      int        `json:"points"`
}

type Analytics struct {
	User            ProfileStats    `json:"user"`
	CompletedTopics []int           `json:"completedTopics"`
	ActivityData    []ActivityPoint `json:"activityData"`
}

func (uc *ProgressUseCase) Analytics(ctx context.Context, userID uuid.UUID) (*Analytics, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := uc.progress.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	rank, err := uc.progress.GetUserRank(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := uc.today()
	streak, activeToday := p.DisplayStreak(today)
	logs := p.ActivitySince(today.AddDays(-domain.ActivityWindowDays))
	activity := make([]ActivityPoint, 0, len(logs))
	for _, l := range logs {
		activity = append(activity, ActivityPoint{Date: l.Date, Submissions: l.Submissions, Points: l.Points})
	}
	badges := p.Badges
	if badges == nil {
		badges = []domain.Badge{}
	}

	return &Analytics{
		User: ProfileStats{
			Username:      user.Username,
			Bio:           user.Bio,
			XP:            p.XP,
			Level:         p.Level,
			NextLevelXP:   p.Level * domain.XPPerLevel,
			Streak:        streak,
			ActiveToday:   activeToday,
			LongestStreak: p.LongestStreak,
			Rank:          rank,
			Badges:        badges,
			SkillMetrics:  p.Skills,
		},
		CompletedTopics: p.CompletedOrders(),
		ActivityData:    activity,
	}, nil
}

func (uc *ProgressUseCase) UpdateSkills(ctx context.Context, userID uuid.UUID, patch domain.SkillPatch) (domain.SkillMetrics, error) {
	p, err := uc.update(ctx, userID, func(p *domain.Progress) error {
		p.Skills.Apply(patch)
		return nil
	})
	if err != nil {
		return domain.SkillMetrics{}, err
	}
	return p.Skills, nil
}

// AwardBadge: повторная выдача не ошибка, awarded=false
func (uc *ProgressUseCase) AwardBadge(ctx context.Context, userID uuid.UUID, name, icon string) (bool, []domain.Badge, error) {
	now := uc.now().UTC()
	var awarded bool
	p, err := uc.update(ctx, userID, func(p *domain.Progress) error {
		ok, err := p.AwardBadge(name, icon, now)
		awarded = ok
		return err
	})
	if err != nil {
		return false, nil, err
	}
	return awarded, p.Badges, nil
}

func (uc *ProgressUseCase) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}
	entries, err := uc.progress.GetLeaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	return entries, nil
}

func (uc *ProgressUseCase) Progress(ctx context.Context, userID uuid.UUID) (*domain.Progress, error) {
	return uc.progress.GetByUserID(ctx, userID)
}
