package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// ErrSessionClosed is returned when a session is closed more than once.
var ErrSessionClosed = errors.New("session already closed")

// Session pins one database connection for the lifetime of a request.
type Session interface {
	Posts() PostTable
	Close() error
}

// SessionFactory hands out a fresh Session per request.
type SessionFactory interface {
	Open(ctx context.Context) (Session, error)
	Ping(ctx context.Context) error
}

type GormSessions struct {
	db     *gorm.DB
	schema string
}

func NewSessionFactory(db *gorm.DB, schema string) *GormSessions {
	return &GormSessions{db: db, schema: schema}
}

// Open checks a dedicated connection out of the driver and binds a gorm
// session to it. Every statement issued through the session runs on that
// connection and under ctx.
func (s *GormSessions) Open(ctx context.Context) (Session, error) {
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	tx := s.db.Session(&gorm.Session{Context: ctx, NewDB: true})
	tx.Statement.ConnPool = conn

	return &gormSession{
		conn:  conn,
		posts: &gormPostTable{tx: tx, name: TableName(s.schema)},
	}, nil
}

func (s *GormSessions) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

type gormSession struct {
	mu     sync.Mutex
	conn   *sql.Conn
	posts  PostTable
	closed bool
}

func (s *gormSession) Posts() PostTable {
	return s.posts
}

func (s *gormSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("release connection: %w", err)
	}
	return nil
}
