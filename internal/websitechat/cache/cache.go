// Package cache keeps website chat presence data in Redis: unread counters,
// last message previews, per-counsellor timelines and an event stream.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	GlobalTimelineKey = "regular:timeline:global"
	StreamKey         = "regular_website_chat:stream"

	FieldStudent    = "student"
	FieldCounsellor = "counsellor"

	lastMessageTTL    = 7 * 24 * time.Hour
	previewMaxRunes   = 100
	streamApproxLimit = 1000
)

func UnreadKey(chatID uuid.UUID) string {
	return fmt.Sprintf("chat:%s:unread", chatID)
}

func LastMessageKey(chatID uuid.UUID) string {
	return fmt.Sprintf("chat:%s:last_message", chatID)
}

func CounsellorTimelineKey(counsellorID string) string {
	return "regular:timeline:counsellor:" + counsellorID
}

type Cache struct {
	client *redis.Client
}

// New connects using a redis:// or rediss:// URL and pings the server.
func New(ctx context.Context, redisURL string) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Cache{client: client}, nil
}

func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// Message is the part of a chat message the cache keeps.
type Message struct {
	ChatID       uuid.UUID
	CounsellorID string
	SenderType   string
	SenderName   string
	Content      string
	CreatedAt    time.Time
}

// RecordMessage bumps the recipient's unread counter, refreshes the preview
// and moves the chat to the top of the timelines.
func (c *Cache) RecordMessage(ctx context.Context, m Message) error {
	recipient := FieldCounsellor
	if m.SenderType != FieldStudent {
		recipient = FieldStudent
	}
	score := float64(m.CreatedAt.UnixMilli())
	member := m.ChatID.String()

	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HIncrBy(ctx, UnreadKey(m.ChatID), recipient, 1)
		p.HSet(ctx, LastMessageKey(m.ChatID),
			"content", Preview(m.Content),
			"createdAt", m.CreatedAt.UTC().Format(time.RFC3339),
			"senderName", m.SenderName,
		)
		p.Expire(ctx, LastMessageKey(m.ChatID), lastMessageTTL)
		p.ZAdd(ctx, GlobalTimelineKey, redis.Z{Score: score, Member: member})
		if m.CounsellorID != "" {
			p.ZAdd(ctx, CounsellorTimelineKey(m.CounsellorID), redis.Z{Score: score, Member: member})
		}
		return nil
	})
	return err
}

// TrackChat puts a new chat on the timelines before its first message.
func (c *Cache) TrackChat(ctx context.Context, chatID uuid.UUID, counsellorID string, at time.Time) error {
	z := redis.Z{Score: float64(at.UnixMilli()), Member: chatID.String()}
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, UnreadKey(chatID), FieldStudent, 0, FieldCounsellor, 0)
		p.ZAdd(ctx, GlobalTimelineKey, z)
		if counsellorID != "" {
			p.ZAdd(ctx, CounsellorTimelineKey(counsellorID), z)
		}
		return nil
	})
	return err
}

// MarkRead zeroes the reader's unread counter. reader is FieldStudent or FieldCounsellor.
func (c *Cache) MarkRead(ctx context.Context, chatID uuid.UUID, reader string) error {
	return c.client.HSet(ctx, UnreadKey(chatID), reader, 0).Err()
}

// Forget removes every key and timeline entry of a closed chat.
func (c *Cache) Forget(ctx context.Context, chatID uuid.UUID, counsellorID string) error {
	member := chatID.String()
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, UnreadKey(chatID), LastMessageKey(chatID))
		p.ZRem(ctx, GlobalTimelineKey, member)
		if counsellorID != "" {
			p.ZRem(ctx, CounsellorTimelineKey(counsellorID), member)
		}
		return nil
	})
	return err
}

// UnreadForCounsellor sums the counsellor-side unread counters of every chat on
// the timeline. An empty counsellorID reads the global timeline.
func (c *Cache) UnreadForCounsellor(ctx context.Context, counsellorID string) (int, error) {
	key := GlobalTimelineKey
	if counsellorID != "" {
		key = CounsellorTimelineKey(counsellorID)
	}
	ids, err := c.client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	cmds := make([]*redis.StringCmd, 0, len(ids))
	_, err = c.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, id := range ids {
			cmds = append(cmds, p.HGet(ctx, "chat:"+id+":unread", FieldCounsellor))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, err
	}

	total := 0
	for _, cmd := range cmds {
		n, err := strconv.Atoi(cmd.Val())
		if err == nil {
			total += n
		}
	}
	return total, nil
}

// Unread returns both counters of one chat.
func (c *Cache) Unread(ctx context.Context, chatID uuid.UUID) (student, counsellor int, err error) {
	vals, err := c.client.HGetAll(ctx, UnreadKey(chatID)).Result()
	if err != nil {
		return 0, 0, err
	}
	student, _ = strconv.Atoi(vals[FieldStudent])
	counsellor, _ = strconv.Atoi(vals[FieldCounsellor])
	return student, counsellor, nil
}

type LastMessage struct {
	Content    string `json:"content"`
	CreatedAt  string `json:"createdAt"`
	SenderName string `json:"senderName"`
}

// LastMessage returns the preview, or ok=false once it expired.
func (c *Cache) LastMessage(ctx context.Context, chatID uuid.UUID) (LastMessage, bool, error) {
	vals, err := c.client.HGetAll(ctx, LastMessageKey(chatID)).Result()
	if err != nil {
		return LastMessage{}, false, err
	}
	if len(vals) == 0 {
		return LastMessage{}, false, nil
	}
	return LastMessage{Content: vals["content"], CreatedAt: vals["createdAt"], SenderName: vals["senderName"]}, true, nil
}

// Publish appends an event to the capped stream.
func (c *Cache) Publish(ctx context.Context, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: streamApproxLimit,
		Approx: true,
		Values: map[string]any{"event": event, "data": string(payload)},
	}).Err()
}

// Preview truncates content to the preview length.
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewMaxRunes {
		return content
	}
	return string(runes[:previewMaxRunes])
}
