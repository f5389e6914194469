// Package backup takes encrypted snapshots of the SQLite database and keeps
// them in S3-compatible storage.
package backup

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "modernc.org/sqlite"

	"github.com/dukerupert/wg/internal/clock"
	"github.com/dukerupert/wg/internal/metrics"
)

const (
	keyPrefix    = "wg/backup-"
	keySuffix    = ".db.enc"
	keyTimestamp = "20060102T150405Z"
)

// s3Client is the subset of the S3 API the manager uses.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Object describes one stored backup.
type Object struct {
	Key       string    `json:"key"`
	TakenAt   time.Time `json:"taken_at"`
	SizeBytes int64     `json:"size_bytes"`
}

type Manager struct {
	db         *sql.DB
	client     s3Client
	bucket     string
	passphrase string
	retention  time.Duration
	clock      clock.Clock
	rand       io.Reader
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

type Option func(*Manager)

func WithMetrics(m *metrics.Metrics) Option {
	return func(mgr *Manager) { mgr.metrics = m }
}

func WithClock(c clock.Clock) Option {
	return func(mgr *Manager) { mgr.clock = c }
}

func withClient(c s3Client) Option {
	return func(mgr *Manager) { mgr.client = c }
}

// NewManager snapshots db and uploads to the configured bucket. Backups
// older than retention are pruned after every run; zero keeps everything.
func NewManager(db *sql.DB, cfg S3Config, passphrase string, retention time.Duration, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		db:         db,
		bucket:     cfg.Bucket,
		passphrase: passphrase,
		retention:  retention,
		clock:      clock.System,
		rand:       rand.Reader,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.client == nil {
		m.client = newS3Client(cfg)
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Run takes one backup and prunes expired ones.
func (m *Manager) Run(ctx context.Context) error {
	obj, err := m.RunNow(ctx)
	m.metrics.Backup(err)
	if err != nil {
		return err
	}
	m.logger.Info("backup uploaded", "key", obj.Key, "size_bytes", obj.SizeBytes)

	if m.retention > 0 {
		n, err := m.Prune(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			m.logger.Info("pruned old backups", "count", n)
		}
	}
	return nil
}

// RunNow snapshots the database, encrypts it and uploads it.
func (m *Manager) RunNow(ctx context.Context) (*Object, error) {
	snapshot, err := m.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	enc, err := Encrypt(snapshot, m.passphrase, m.rand)
	if err != nil {
		return nil, fmt.Errorf("encrypt backup: %w", err)
	}

	takenAt := m.clock.Now().UTC().Truncate(time.Second)
	key := keyPrefix + takenAt.Format(keyTimestamp) + keySuffix
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(enc),
		ContentLength: aws.Int64(int64(len(enc))),
	})
	if err != nil {
		return nil, fmt.Errorf("upload backup: %w", err)
	}
	return &Object{Key: key, TakenAt: takenAt, SizeBytes: int64(len(enc))}, nil
}

// snapshot returns a consistent copy of the database file. VACUUM INTO
// works on a live database, including one in WAL mode.
func (m *Manager) snapshot(ctx context.Context) ([]byte, error) {
	dir, err := os.MkdirTemp("", "wg-backup-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "snapshot.db")
	if _, err := m.db.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return nil, fmt.Errorf("snapshot database: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}

// List returns the stored backups, newest first.
func (m *Manager) List(ctx context.Context) ([]Object, error) {
	var objects []Object
	p := s3.NewListObjectsV2Paginator(m.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(m.bucket),
		Prefix: aws.String(keyPrefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list backups: %w", err)
		}
		for _, o := range page.Contents {
			key := aws.ToString(o.Key)
			takenAt, ok := parseKey(key)
			if !ok {
				continue
			}
			objects = append(objects, Object{Key: key, TakenAt: takenAt, SizeBytes: aws.ToInt64(o.Size)})
		}
	}
	slices.SortFunc(objects, func(a, b Object) int { return b.TakenAt.Compare(a.TakenAt) })
	return objects, nil
}

// Prune deletes backups older than the retention period. The newest backup
// is always kept.
func (m *Manager) Prune(ctx context.Context) (int, error) {
	objects, err := m.List(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := m.clock.Now().Add(-m.retention)
	var deleted int
	var errs []error
	for i, o := range objects {
		if i == 0 || !o.TakenAt.Before(cutoff) {
			continue
		}
		if _, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.bucket),
			Key:    aws.String(o.Key),
		}); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", o.Key, err))
			continue
		}
		deleted++
	}
	return deleted, errors.Join(errs...)
}

// Restore downloads and decrypts the backup stored under key and writes it
// to dst after an integrity check. dst must not exist; swapping it in for
// the live database is left to the operator while the server is stopped.
func (m *Manager) Restore(ctx context.Context, key, dst string) error {
	if _, ok := parseKey(key); !ok {
		return fmt.Errorf("not a backup key: %q", key)
	}
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("restore target %s already exists", dst)
	}

	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download backup: %w", err)
	}
	defer out.Body.Close()

	enc, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	plaintext, err := Decrypt(enc, m.passphrase)
	if err != nil {
		return err
	}

	tmp := dst + ".partial"
	if err := os.WriteFile(tmp, plaintext, 0o600); err != nil {
		return fmt.Errorf("write restored database: %w", err)
	}
	if err := checkIntegrity(ctx, tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("move restored database: %w", err)
	}
	return nil
}

func checkIntegrity(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open restored db: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

func parseKey(key string) (time.Time, bool) {
	ts, ok := strings.CutPrefix(key, keyPrefix)
	if !ok {
		return time.Time{}, false
	}
	ts, ok = strings.CutSuffix(ts, keySuffix)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(keyTimestamp, ts)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
