package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	_ "github.com/lib/pq"

	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/config"
	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/model"
)

// Storage 分析运行的持久化层。保存是尽力而为的：失败只影响归档，不影响分析结果。
type Storage struct {
	db *sql.DB
}

// NewStorage 建立数据库连接并初始化表结构
func NewStorage(cfg config.DBConfig) (*Storage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Storage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS analysis_runs (
			id SERIAL PRIMARY KEY,
			brand TEXT NOT NULL,
			time_window TEXT NOT NULL DEFAULT '',
			data_source TEXT NOT NULL,
			total_sources INT NOT NULL DEFAULT 0,
			has_critical_issues BOOLEAN NOT NULL DEFAULT FALSE,
			full_report TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS run_mentions (
			id SERIAL PRIMARY KEY,
			run_id INT NOT NULL REFERENCES analysis_runs(id) ON DELETE CASCADE,
			platform TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL,
			snippet TEXT NOT NULL DEFAULT ''
		)
	`)
	return err
}

// Close 关闭数据库连接
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveRun 保存一次分析运行及其引用的提及记录，返回运行 ID。
// corpus 可为 nil（知识回退路径没有语料）。
func (s *Storage) SaveRun(ctx context.Context, req model.Request, corpus *model.AggregatedCorpus, res *model.AnalysisResult) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	total := 0
	if corpus != nil {
		total = corpus.TotalSources
	}

	var runID int
	err = tx.QueryRowContext(ctx, `
		INSERT INTO analysis_runs(brand, time_window, data_source, total_sources, has_critical_issues, full_report)
		VALUES($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, req.Brand, req.TimeWindow, string(res.DataSource), total, res.HasCriticalIssues, sanitize(res.FullReport)).Scan(&runID)
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	if corpus != nil {
		for _, p := range model.PlatformOrder {
			for _, m := range corpus.Buckets[p].Mentions {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO run_mentions(run_id, platform, title, url, snippet)
					VALUES($1, $2, $3, $4, $5)
				`, runID, string(p), sanitize(m.Title), m.URL, sanitize(m.Snippet)); err != nil {
					tx.Rollback()
					return 0, err
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// sanitize 去掉非法 UTF-8 与 NULL 字节，PostgreSQL 文本字段不接受 NULL 字节
func sanitize(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for _, r := range s {
			if r == utf8.RuneError {
				continue
			}
			v = append(v, r)
		}
		s = string(v)
	}
	return strings.ReplaceAll(s, "\x00", "")
}
