package db

import (
	"context"
	"database/sql"
	"time"

	"sitediary/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

// ErrNotFound запись с таким id отсутствует
var ErrNotFound = errors.New("diary entry not found")

type Storage struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db, now: time.Now}
}

// WithClock подменяет источник времени (для тестов)
func (s *Storage) WithClock(now func() time.Time) *Storage {
	s.now = now
	return s
}

// PoolConfig настройки пула соединений
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Connect открывает пул соединений к Postgres
func Connect(ctx context.Context, dsn string, pool PoolConfig) (*sqlx.DB, error) {
	conn, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connect to postgres")
	}
	if pool.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	return conn, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// stamp текущее время с точностью Postgres
func (s *Storage) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *Storage) CreateDiary(ctx context.Context, d *models.SiteDiary) error {
	now := s.stamp()
	d.CreatedAt = now
	d.UpdatedAt = now
	normalize(d)

	query := `
        INSERT INTO site_diary
            (date, site_location, weather, description, current_phase, work_completed,
             has_delays_or_issues, delays_or_issues, labor, equipment, materials, visitors, images,
             created_at, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        RETURNING id`
	err := s.db.QueryRowContext(ctx, query,
		d.Date, d.SiteLocation, d.Weather, d.Description, d.CurrentPhase, d.WorkCompleted,
		d.HasDelaysOrIssues, d.DelaysOrIssues, d.Labor, d.Equipment, d.Materials, d.Visitors, d.Images,
		d.CreatedAt, d.UpdatedAt).
		Scan(&d.ID)
	return errors.Wrap(err, "insert site diary")
}

func (s *Storage) GetDiary(ctx context.Context, id int) (*models.SiteDiary, error) {
	d := &models.SiteDiary{}
	query := `SELECT ` + diaryColumns + ` FROM site_diary WHERE id=$1`
	err := s.db.GetContext(ctx, d, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select site diary")
	}
	return d, nil
}

// UpdateDiary перезаписывает все редактируемые поля записи d.ID.
// id и created_at не меняются, updated_at не уменьшается.
func (s *Storage) UpdateDiary(ctx context.Context, d *models.SiteDiary) error {
	normalize(d)
	query := `
        UPDATE site_diary
        SET date=$1, site_location=$2, weather=$3, description=$4, current_phase=$5,
            work_completed=$6, has_delays_or_issues=$7, delays_or_issues=$8, labor=$9,
            equipment=$10, materials=$11, visitors=$12, images=$13,
            updated_at=GREATEST(updated_at, $14)
        WHERE id=$15
        RETURNING created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query,
		d.Date, d.SiteLocation, d.Weather, d.Description, d.CurrentPhase,
		d.WorkCompleted, d.HasDelaysOrIssues, d.DelaysOrIssues, d.Labor,
		d.Equipment, d.Materials, d.Visitors, d.Images,
		s.stamp(), d.ID).
		Scan(&d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return errors.Wrap(err, "update site diary")
}

func (s *Storage) DeleteDiary(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM site_diary WHERE id=$1`, id)
	if err != nil {
		return errors.Wrap(err, "delete site diary")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete site diary")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Storage) ListDiaries(ctx context.Context, f models.Filters) ([]models.SiteDiary, error) {
	query, args := BuildListQuery(f)
	diaries := []models.SiteDiary{}
	if err := s.db.SelectContext(ctx, &diaries, query, args...); err != nil {
		return nil, errors.Wrap(err, "list site diaries")
	}
	return diaries, nil
}

// normalize пустые коллекции хранятся как '[]' и '{}', а не NULL
func normalize(d *models.SiteDiary) {
	if d.Visitors == nil {
		d.Visitors = models.Visitors{}
	}
	if d.Images == nil {
		d.Images = []string{}
	}
}
