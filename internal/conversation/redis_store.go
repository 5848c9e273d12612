package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// sessionTTL bounds how long an idle session survives in Redis.
const sessionTTL = 24 * time.Hour

// RedisStore persists sessions in Redis so the chat surface can be restarted
// (or scaled out) without dropping in-flight conversations.
type RedisStore struct {
	redis  *redis.Client
	now    func() time.Time
	tracer trace.Tracer
}

// NewRedisStore wraps a Redis client as a session store.
func NewRedisStore(client *redis.Client, clock func() time.Time, tracer trace.Tracer) *RedisStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if clock == nil {
		clock = time.Now
	}
	if tracer == nil {
		tracer = otel.Tracer("calagent.internal.conversation.sessions")
	}
	return &RedisStore{redis: client, now: clock, tracer: tracer}
}

// GetOrCreate loads the session, creating one at the greeting stage when the
// id is unknown.
func (s *RedisStore) GetOrCreate(ctx context.Context, sessionID string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.get_or_create_session")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return NewSession(sessionID, s.now()), nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to decode session: %w", err)
	}
	return &sess, nil
}

// Get loads the session without creating one; unknown ids return
// ErrSessionNotFound.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.get_session")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to decode session: %w", err)
	}
	return &sess, nil
}

// Save persists the session with a sliding TTL.
func (s *RedisStore) Save(ctx context.Context, session *Session) error {
	ctx, span := s.tracer.Start(ctx, "conversation.save_session")
	defer span.End()

	session.UpdatedAt = s.now()
	data, err := json.Marshal(session)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(session.ID), data, sessionTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist session: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}
