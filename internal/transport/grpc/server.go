package grpc_server

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"codenest/internal/domain"
	"codenest/internal/platform/logger"
)

// ProgressReader: то, что нужно gRPC-серверу от слоя usecase
type ProgressReader interface {
	Progress(ctx context.Context, userID uuid.UUID) (*domain.Progress, error)
	Completed(ctx context.Context, userID uuid.UUID) ([]int, error)
}

// ProgressServer отдаёт прогресс другим сервисам только на чтение
type ProgressServer struct {
	progress ProgressReader
}

func NewProgressServer(progress ProgressReader) *ProgressServer {
	return &ProgressServer{progress: progress}
}

func (s *ProgressServer) GetProgress(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	uid, err := userIDFrom(req)
	if err != nil {
		return nil, err
	}
	p, err := s.progress.Progress(ctx, uid)
	if err != nil {
		return nil, toStatus(err)
	}

	badges := make([]interface{}, 0, len(p.Badges))
	for _, b := range p.Badges {
		badges = append(badges, map[string]interface{}{
			"name":     b.Name,
			"icon":     b.Icon,
			"earnedAt": b.EarnedAt.UTC().Format(time.RFC3339),
		})
	}
	var lastActivity interface{}
	if p.LastActivityDate != nil {
		lastActivity = p.LastActivityDate.String()
	}

	out, err := structpb.NewStruct(map[string]interface{}{
		"userId":           p.UserID.String(),
		"xp":               p.XP,
		"level":            p.Level,
		"streak":           p.Streak,
		"longestStreak":    p.LongestStreak,
		"lastActivityDate": lastActivity,
		"completedTopics":  ints(p.CompletedOrders()),
		"badges":           badges,
		"skills": map[string]interface{}{
			"syntax":         p.Skills.Syntax,
			"logic":          p.Skills.Logic,
			"dataStructures": p.Skills.DataStructures,
			"optimization":   p.Skills.Optimization,
		},
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode progress: %v", err)
	}
	return out, nil
}

func (s *ProgressServer) GetCompletedTopics(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	uid, err := userIDFrom(req)
	if err != nil {
		return nil, err
	}
	orders, err := s.progress.Completed(ctx, uid)
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := structpb.NewStruct(map[string]interface{}{"completedTopics": ints(orders)})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode topics: %v", err)
	}
	return out, nil
}

func userIDFrom(req *structpb.Struct) (uuid.UUID, error) {
	v, ok := req.GetFields()["user_id"]
	if !ok {
		return uuid.Nil, status.Error(codes.InvalidArgument, "user_id is required")
	}
	uid, err := uuid.Parse(v.GetStringValue())
	if err != nil {
		return uuid.Nil, status.Error(codes.InvalidArgument, "invalid user id")
	}
	return uid, nil
}

// structpb не принимает []int
func ints(in []int) []interface{} {
	out := make([]interface{}, 0, len(in))
	for _, v := range in {
		out = append(out, v)
	}
	return out
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrProgressNotFound):
		return status.Error(codes.NotFound, "progress not found")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}
	return status.Error(codes.Internal, "failed to load progress")
}

// NewGRPCServer регистрирует сервис прогресса, health и reflection
func NewGRPCServer(progress *ProgressServer, log *logger.Logger) *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(recoverInterceptor(log), logInterceptor(log)))
	RegisterProgressServiceServer(srv, progress)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ProgressServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	reflection.Register(srv)
	return srv
}

func logInterceptor(log *logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		fields := []interface{}{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start)}
		if code == codes.Internal || code == codes.Unknown {
			log.Error("grpc request failed", append(fields, "error", err)...)
		} else {
			log.Debug("grpc request", fields...)
		}
		return resp, err
	}
}

func recoverInterceptor(log *logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("grpc panic recovered", "method", info.FullMethod, "panic", r)
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}
