package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a demo school, student and gateway settings for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		db, err := initGorm(sqlxDB)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		const schoolID = "sch_demo"
		const yearID = "ay_2026"

		if clearData {
			for _, table := range []string{"fee_payments", "student_fees", "students", "users", "school_payment_settings", "academic_years"} {
				if err := db.Exec(fmt.Sprintf("DELETE FROM %s WHERE school_id = ?", table), schoolID).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing demo data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		var exists int
		row := db.Raw("SELECT 1 FROM academic_years WHERE id = ?", yearID).Row()
		if err := row.Scan(&exists); err != nil {
			if err := db.Exec(
				"INSERT INTO academic_years (id, school_id, name, is_active, starts_on, ends_on, created_at, updated_at) VALUES (?, ?, '2026-27', true, '2026-04-01', '2027-03-31', now(), now())",
				yearID, schoolID).Error; err != nil {
				log.Fatalf("failed to insert academic year: %v", err)
			}
			fmt.Println("Seeded academic year:", yearID)
		}

		adminEmail := "admin@demo.school"
		row = db.Raw("SELECT 1 FROM users WHERE email = ?", adminEmail).Row()
		if err := row.Scan(&exists); err != nil {
			if err := db.Exec(
				"INSERT INTO users (school_id, email, name, password_hash, is_active, created_at, updated_at) VALUES (?, ?, 'Demo Admin', ?, true, now(), now())",
				schoolID, adminEmail, string(hash)).Error; err != nil {
				log.Fatalf("failed to insert admin user: %v", err)
			}
			fmt.Println("Seeded admin user:", adminEmail)
		}

		admissionNo := "ADM-1001"
		row = db.Raw("SELECT 1 FROM students WHERE school_id = ? AND admission_no = ?", schoolID, admissionNo).Row()
		if err := row.Scan(&exists); err != nil {
			if err := db.Exec(
				"INSERT INTO students (school_id, admission_no, name, class_name, section_name, email, contact_number, password_hash, is_active, created_at, updated_at) VALUES (?, ?, 'Aarav Sharma', 'VIII', 'A', 'aarav@demo.school', '9000000001', ?, true, now(), now())",
				schoolID, admissionNo, string(hash)).Error; err != nil {
				log.Fatalf("failed to insert student: %v", err)
			}
			fmt.Println("Seeded student:", admissionNo)
		}

		var studentID int64
		if err := db.Raw("SELECT id FROM students WHERE school_id = ? AND admission_no = ?", schoolID, admissionNo).Row().Scan(&studentID); err != nil {
			log.Fatalf("failed to lookup student id: %v", err)
		}

		fees := []struct {
			Structure string
			Amount    float64
		}{
			{"Tuition Fee Term 1", 12500.00},
			{"Transport Fee Term 1", 4500.00},
			{"Annual Activity Fee", 2000.00},
		}
		for _, fee := range fees {
			row := db.Raw("SELECT 1 FROM student_fees WHERE student_id = ? AND academic_year_id = ? AND structure_name = ?", studentID, yearID, fee.Structure).Row()
			if err := row.Scan(&exists); err != nil {
				if err := db.Exec(
					"INSERT INTO student_fees (student_id, school_id, academic_year_id, structure_name, original_amount, discount_amount, final_amount, paid_amount, balance_amount, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, 0, ?, 0, ?, 'UNPAID', now(), now())",
					studentID, schoolID, yearID, fee.Structure, fee.Amount, fee.Amount, fee.Amount).Error; err != nil {
					log.Fatalf("failed to insert student fee %s: %v", fee.Structure, err)
				}
				fmt.Printf("Seeded student fee: %s\n", fee.Structure)
			}
		}

		row = db.Raw("SELECT 1 FROM school_payment_settings WHERE school_id = ?", schoolID).Row()
		if err := row.Scan(&exists); err != nil {
			if err := db.Exec(
				"INSERT INTO school_payment_settings (school_id, provider, is_enabled, test_mode, merchant_id, access_code, secret_key, working_key, success_url, failure_url, created_at, updated_at) VALUES (?, 'ICICI_EAZYPAY', true, true, 'DEMO_MERCHANT', 'DEMO_ACCESS', 'demo-secret-key-not-for-production', '', '', '', now(), now())",
				schoolID).Error; err != nil {
				log.Fatalf("failed to insert payment settings: %v", err)
			}
			fmt.Println("Seeded payment settings for school:", schoolID)
		}

		fmt.Println("Demo data seeded successfully")
	},
}
