// Package backup takes encrypted snapshots of the SQLite database and keeps
// them in S3-compatible object storage.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "modernc.org/sqlite"
)

const objectSuffix = ".db.enc"

// ErrNoPassphrase is returned when a backup or restore is attempted without
// a passphrase.
var ErrNoPassphrase = errors.New("backup passphrase is required")

// objectStore is the subset of the S3 API the archiver uses.
type objectStore interface {
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
	Prefix    string
}

// Object describes a stored backup.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Archiver creates, lists, restores and prunes database backups.
type Archiver struct {
	client objectStore
	bucket string
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

func NewArchiver(cfg S3Config, logger *slog.Logger) *Archiver {
	return newArchiver(newS3Client(cfg), cfg.Bucket, cfg.Prefix, logger)
}

func newArchiver(client objectStore, bucket, prefix string, logger *slog.Logger) *Archiver {
	return &Archiver{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger.With("component", "backup"),
		now:    time.Now,
	}
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

// Create snapshots db with VACUUM INTO, encrypts the snapshot and uploads it.
func (a *Archiver) Create(ctx context.Context, db *sql.DB, passphrase string) (Object, error) {
	if passphrase == "" {
		return Object{}, ErrNoPassphrase
	}

	dir, err := os.MkdirTemp("", "chorify-backup-")
	if err != nil {
		return Object{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	snapshot := filepath.Join(dir, "snapshot.db")
	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", snapshot); err != nil {
		return Object{}, fmt.Errorf("snapshot database: %w", err)
	}
	plaintext, err := os.ReadFile(snapshot)
	if err != nil {
		return Object{}, fmt.Errorf("read snapshot: %w", err)
	}
	sealed, err := Seal(plaintext, passphrase)
	if err != nil {
		return Object{}, fmt.Errorf("encrypt: %w", err)
	}

	now := a.now().UTC()
	key := a.prefix + "chorify-" + now.Format("2006-01-02T150405Z") + objectSuffix
	if _, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(int64(len(sealed))),
	}); err != nil {
		return Object{}, fmt.Errorf("upload to s3: %w", err)
	}

	a.logger.Info("backup uploaded", "key", key, "bytes", len(sealed))
	return Object{Key: key, Size: int64(len(sealed)), LastModified: now}, nil
}

// List returns the stored backups, newest first.
func (a *Archiver) List(ctx context.Context) ([]Object, error) {
	var (
		objects []Object
		token   *string
	)
	for {
		out, err := a.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(a.bucket),
			Prefix:            aws.String(a.prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list backups: %w", err)
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, objectSuffix) {
				continue
			}
			objects = append(objects, Object{
				Key:          key,
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}

	sort.Slice(objects, func(i, j int) bool {
		if !objects[i].LastModified.Equal(objects[j].LastModified) {
			return objects[i].LastModified.After(objects[j].LastModified)
		}
		return objects[i].Key > objects[j].Key
	})
	return objects, nil
}

// Restore downloads key, decrypts it, checks its integrity and replaces the
// database file at dbPath. The server must not be running.
func (a *Archiver) Restore(ctx context.Context, key, passphrase, dbPath string) error {
	if passphrase == "" {
		return ErrNoPassphrase
	}
	if !strings.HasPrefix(key, a.prefix) {
		key = a.prefix + key
	}

	result, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download from s3: %w", err)
	}
	sealed, err := io.ReadAll(result.Body)
	result.Body.Close()
	if err != nil {
		return fmt.Errorf("read download: %w", err)
	}

	plaintext, err := Open(sealed, passphrase)
	if err != nil {
		return fmt.Errorf("decrypt backup: %w", err)
	}

	staged := dbPath + ".restore"
	if err := os.WriteFile(staged, plaintext, 0o600); err != nil {
		return fmt.Errorf("write restored db: %w", err)
	}
	defer os.Remove(staged)

	if err := integrityCheck(ctx, staged); err != nil {
		return err
	}

	if err := os.Rename(staged, dbPath); err != nil {
		return fmt.Errorf("replace database: %w", err)
	}
	os.Remove(dbPath + "-wal")
	os.Remove(dbPath + "-shm")

	a.logger.Info("backup restored", "key", key, "db", dbPath)
	return nil
}

func integrityCheck(ctx context.Context, path string) error {
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

// Prune deletes backups older than retention. The newest backup is always
// kept. It returns the number of objects deleted.
func (a *Archiver) Prune(ctx context.Context, retention time.Duration) (int, error) {
	objects, err := a.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(objects) == 0 {
		return 0, nil
	}

	cutoff := a.now().Add(-retention)
	deleted := 0
	for _, obj := range objects[1:] {
		if !obj.LastModified.Before(cutoff) {
			continue
		}
		if _, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(a.bucket),
			Key:    aws.String(obj.Key),
		}); err != nil {
			a.logger.Warn("failed to delete backup", "key", obj.Key, "error", err)
			continue
		}
		deleted++
	}
	return deleted, nil
}
