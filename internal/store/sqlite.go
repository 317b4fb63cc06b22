package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/petasbytes/go-assistant/processor"
)

type assistantRecord struct {
	ID           string `gorm:"primaryKey"`
	Name         string
	Instructions string
	Model        string
	Tools        datatypes.JSONSlice[processor.Tool]
	CreatedAt    time.Time
}

func (assistantRecord) TableName() string { return "assistants" }

type threadRecord struct {
	ID        string `gorm:"primaryKey"`
	Metadata  datatypes.JSONType[map[string]string]
	CreatedAt time.Time
}

func (threadRecord) TableName() string { return "threads" }

// messageRecord orders messages by Seq so equal timestamps keep insertion order.
type messageRecord struct {
	Seq         uint   `gorm:"primaryKey;autoIncrement"`
	ID          string `gorm:"uniqueIndex"`
	ThreadID    string `gorm:"index"`
	Role        string
	Content     datatypes.JSONSlice[processor.ContentBlock]
	AssistantID string
	RunID       string `gorm:"index"`
	CreatedAt   time.Time
}

func (messageRecord) TableName() string { return "messages" }

type runRecord struct {
	ID             string `gorm:"primaryKey"`
	ThreadID       string `gorm:"index"`
	AssistantID    string
	Status         string
	RequiredAction datatypes.JSONSlice[processor.ToolCall]
	ToolOutputs    datatypes.JSONSlice[processor.ToolOutput]
	LastError      string
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

func (runRecord) TableName() string { return "runs" }

// SQLite is a Store backed by a sqlite file through gorm.
type SQLite struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) the database at path and migrates it.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("store: sqlite path is empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite works best with a single writer.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&assistantRecord{}, &threadRecord{}, &messageRecord{}, &runRecord{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite db: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) CreateAssistant(ctx context.Context, a *processor.Assistant) error {
	stamp(&a.ID, &a.CreatedAt, "asst")
	rec := assistantRecord{
		ID:           a.ID,
		Name:         a.Name,
		Instructions: a.Instructions,
		Model:        a.Model,
		Tools:        datatypes.NewJSONSlice(a.Tools),
		CreatedAt:    a.CreatedAt,
	}
	return s.db.WithContext(ctx).Create(&rec).Error
}

func (s *SQLite) GetAssistant(ctx context.Context, id string) (*processor.Assistant, error) {
	var rec assistantRecord
	if err := s.first(ctx, &rec, id, "assistant"); err != nil {
		return nil, err
	}
	return &processor.Assistant{
		ID:           rec.ID,
		Name:         rec.Name,
		Instructions: rec.Instructions,
		Model:        rec.Model,
		Tools:        rec.Tools,
		CreatedAt:    rec.CreatedAt,
	}, nil
}

func (s *SQLite) CreateThread(ctx context.Context, t *processor.Thread) error {
	stamp(&t.ID, &t.CreatedAt, "thread")
	rec := threadRecord{
		ID:        t.ID,
		Metadata:  datatypes.NewJSONType(t.Metadata),
		CreatedAt: t.CreatedAt,
	}
	return s.db.WithContext(ctx).Create(&rec).Error
}

func (s *SQLite) GetThread(ctx context.Context, id string) (*processor.Thread, error) {
	var rec threadRecord
	if err := s.first(ctx, &rec, id, "thread"); err != nil {
		return nil, err
	}
	return &processor.Thread{ID: rec.ID, Metadata: rec.Metadata.Data(), CreatedAt: rec.CreatedAt}, nil
}

func (s *SQLite) AppendMessage(ctx context.Context, m *processor.Message) error {
	if _, err := s.GetThread(ctx, m.ThreadID); err != nil {
		return err
	}
	stamp(&m.ID, &m.CreatedAt, "msg")
	rec := messageRecord{
		ID:          m.ID,
		ThreadID:    m.ThreadID,
		Role:        string(m.Role),
		Content:     datatypes.NewJSONSlice(m.Content),
		AssistantID: m.AssistantID,
		RunID:       m.RunID,
		CreatedAt:   m.CreatedAt,
	}
	return s.db.WithContext(ctx).Create(&rec).Error
}

func (s *SQLite) ListMessages(ctx context.Context, threadID string) ([]processor.Message, error) {
	if _, err := s.GetThread(ctx, threadID); err != nil {
		return nil, err
	}
	var recs []messageRecord
	if err := s.db.WithContext(ctx).Where("thread_id = ?", threadID).Order("seq ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]processor.Message, 0, len(recs))
	for _, r := range recs {
		out = append(out, processor.Message{
			ID:          r.ID,
			ThreadID:    r.ThreadID,
			Role:        processor.Role(r.Role),
			Content:     r.Content,
			AssistantID: r.AssistantID,
			RunID:       r.RunID,
			CreatedAt:   r.CreatedAt,
		})
	}
	return out, nil
}

func (s *SQLite) SaveRun(ctx context.Context, r *processor.Run) error {
	stamp(&r.ID, &r.CreatedAt, "run")
	rec := runRecord{
		ID:             r.ID,
		ThreadID:       r.ThreadID,
		AssistantID:    r.AssistantID,
		Status:         string(r.Status),
		RequiredAction: datatypes.NewJSONSlice(r.RequiredAction),
		ToolOutputs:    datatypes.NewJSONSlice(r.ToolOutputs),
		LastError:      r.LastError,
		CreatedAt:      r.CreatedAt,
		CompletedAt:    r.CompletedAt,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error
}

func (s *SQLite) GetRun(ctx context.Context, id string) (*processor.Run, error) {
	var rec runRecord
	if err := s.first(ctx, &rec, id, "run"); err != nil {
		return nil, err
	}
	return &processor.Run{
		ID:             rec.ID,
		ThreadID:       rec.ThreadID,
		AssistantID:    rec.AssistantID,
		Status:         processor.RunStatus(rec.Status),
		RequiredAction: rec.RequiredAction,
		ToolOutputs:    rec.ToolOutputs,
		LastError:      rec.LastError,
		CreatedAt:      rec.CreatedAt,
		CompletedAt:    rec.CompletedAt,
	}, nil
}

func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLite) first(ctx context.Context, dest any, id, kind string) error {
	err := s.db.WithContext(ctx).Where("id = ?", id).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(kind, id)
	}
	return err
}
