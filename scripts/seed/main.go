// Seeds a development database with an admin account and a small demo
// dataset the solver can run against.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
)

type seedFile struct {
	Subjects []struct {
		Code                string `json:"code"`
		Name                string `json:"name"`
		WeeklyPeriods       int    `json:"weekly_periods"`
		Difficulty          string `json:"difficulty"`
		RequiresRoomType    string `json:"requires_room_type"`
		RequiresConsecutive bool   `json:"requires_consecutive"`
	} `json:"subjects"`
	Teachers []struct {
		Email          string   `json:"email"`
		FullName       string   `json:"full_name"`
		MaxPeriodsWeek int      `json:"max_periods_week"`
		SubjectCodes   []string `json:"subject_codes"`
	} `json:"teachers"`
	Classes []struct {
		Name         string   `json:"name"`
		Grade        string   `json:"grade"`
		StudentCount int      `json:"student_count"`
		SubjectCodes []string `json:"subject_codes"`
	} `json:"classes"`
	Rooms []struct {
		Name     string `json:"name"`
		RoomType string `json:"room_type"`
		Capacity int    `json:"capacity"`
	} `json:"rooms"`
}

func main() {
	var (
		adminEmail    string
		adminPassword string
		dataPath      string
	)
	flag.StringVar(&adminEmail, "admin-email", "admin@example.com", "Admin account email")
	flag.StringVar(&adminPassword, "admin-password", "", "Admin account password (required)")
	flag.StringVar(&dataPath, "data", "", "Optional JSON file with demo entities")
	flag.Parse()

	if adminPassword == "" {
		log.Fatal("missing -admin-password")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := seedAdmin(ctx, db, adminEmail, adminPassword); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("admin account ready: %s\n", adminEmail)

	if dataPath != "" {
		if err := seedEntities(ctx, db, dataPath); err != nil {
			log.Fatalf("failed to seed entities: %v", err)
		}
		fmt.Println("demo entities seeded")
	}
}

func seedAdmin(ctx context.Context, db *sqlx.DB, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, full_name, role, active, created_at, updated_at)
		VALUES ($1, $2, $3, 'Administrator', 'ADMIN', TRUE, NOW(), NOW())
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash`,
		uuid.NewString(), email, string(hash))
	return err
}

func seedEntities(ctx context.Context, db *sqlx.DB, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var data seedFile
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	subjectIDs := make(map[string]string, len(data.Subjects))
	for _, s := range data.Subjects {
		id := uuid.NewString()
		_, err := db.ExecContext(ctx, `
			INSERT INTO subjects (id, code, name, weekly_periods, difficulty, requires_room_type, requires_consecutive, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
			ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name`,
			id, s.Code, s.Name, s.WeeklyPeriods, s.Difficulty, s.RequiresRoomType, s.RequiresConsecutive)
		if err != nil {
			return fmt.Errorf("subject %s: %w", s.Code, err)
		}
		if err := db.GetContext(ctx, &id, `SELECT id FROM subjects WHERE code = $1`, s.Code); err != nil {
			return fmt.Errorf("subject %s: %w", s.Code, err)
		}
		subjectIDs[s.Code] = id
	}

	resolve := func(codes []string) ([]string, error) {
		ids := make([]string, 0, len(codes))
		for _, code := range codes {
			id, ok := subjectIDs[code]
			if !ok {
				return nil, fmt.Errorf("unknown subject code %s", code)
			}
			ids = append(ids, id)
		}
		return ids, nil
	}

	for _, t := range data.Teachers {
		ids, err := resolve(t.SubjectCodes)
		if err != nil {
			return fmt.Errorf("teacher %s: %w", t.Email, err)
		}
		_, err = db.ExecContext(ctx, `
			INSERT INTO teachers (id, email, full_name, max_periods_week, availability, subject_ids, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, '{}', $5, TRUE, NOW(), NOW())
			ON CONFLICT (email) DO NOTHING`,
			uuid.NewString(), t.Email, t.FullName, t.MaxPeriodsWeek, pq.StringArray(ids))
		if err != nil {
			return fmt.Errorf("teacher %s: %w", t.Email, err)
		}
	}

	for _, c := range data.Classes {
		ids, err := resolve(c.SubjectCodes)
		if err != nil {
			return fmt.Errorf("class %s: %w", c.Name, err)
		}
		_, err = db.ExecContext(ctx, `
			INSERT INTO classes (id, name, grade, student_count, subject_ids, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			ON CONFLICT (name) DO NOTHING`,
			uuid.NewString(), c.Name, c.Grade, c.StudentCount, pq.StringArray(ids))
		if err != nil {
			return fmt.Errorf("class %s: %w", c.Name, err)
		}
	}

	for _, r := range data.Rooms {
		_, err = db.ExecContext(ctx, `
			INSERT INTO rooms (id, name, room_type, capacity, availability, created_at, updated_at)
			VALUES ($1, $2, $3, $4, '{}', NOW(), NOW())
			ON CONFLICT (name) DO NOTHING`,
			uuid.NewString(), r.Name, r.RoomType, r.Capacity)
		if err != nil {
			return fmt.Errorf("room %s: %w", r.Name, err)
		}
	}

	return nil
}
