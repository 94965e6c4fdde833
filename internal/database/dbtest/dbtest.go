// Package dbtest starts a throwaway Postgres for integration tests and
// seeds it with fixtures.
package dbtest

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faker/faker/v4"
	"github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"

	"github.com/emilythestrangee/studyverse/backend/internal/database"
	"github.com/emilythestrangee/studyverse/backend/internal/models"
)

const image = "postgres:16-alpine"

// Postgres is a running container with a migrated schema.
type Postgres struct {
	DB        *gorm.DB
	service   database.Service
	container *postgres.PostgresContainer
}

// Start launches the container. Callers skip their tests when it fails,
// typically because Docker is not available.
func Start(ctx context.Context) (*Postgres, error) {
	ctr, err := postgres.Run(ctx, image,
		postgres.WithDatabase("studyverse_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		if ctr != nil {
			_ = testcontainers.TerminateContainer(ctr)
		}
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = testcontainers.TerminateContainer(ctr)
		return nil, err
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	svc, err := database.New(dsn, log)
	if err != nil {
		_ = testcontainers.TerminateContainer(ctr)
		return nil, err
	}

	return &Postgres{DB: svc.GetDB(), service: svc, container: ctr}, nil
}

// Service exposes the database service backing DB.
func (p *Postgres) Service() database.Service {
	return p.service
}

func (p *Postgres) Stop() {
	_ = p.service.Close()
	_ = testcontainers.TerminateContainer(p.container, testcontainers.StopTimeout(10*time.Second))
}

// Reset empties every table between tests.
func (p *Postgres) Reset(t testing.TB) {
	t.Helper()
	err := p.DB.Exec(`TRUNCATE TABLE post_votes, comment_votes, comments, posts,
		community_members, communities, users RESTART IDENTITY CASCADE`).Error
	if err != nil {
		t.Fatalf("reset database: %v", err)
	}
}

var seq atomic.Int64

func unique(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, seq.Add(1))
}

func CreateUser(t testing.TB, db *gorm.DB) models.User {
	t.Helper()
	name := faker.Username()
	if len(name) > 20 {
		name = name[:20]
	}
	u := models.User{
		Username: unique(name),
		Email:    unique("u") + "_" + faker.Email(),
		Password: "x",
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func CreatePost(t testing.TB, db *gorm.DB, authorID int) models.Post {
	t.Helper()
	p := models.Post{
		Title:    faker.Sentence(),
		Content:  faker.Paragraph(),
		AuthorID: authorID,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

func CreateComment(t testing.TB, db *gorm.DB, postID, authorID int) models.Comment {
	t.Helper()
	c := models.Comment{
		Content:  faker.Sentence(),
		PostID:   postID,
		AuthorID: authorID,
	}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}
	return c
}
