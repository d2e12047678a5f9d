package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"smabackend/internal/model"
	"smabackend/internal/repository"
)

func main() {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	mongoDB := os.Getenv("MONGO_DB")
	if mongoDB == "" {
		mongoDB = "sma"
	}
	studentID := os.Getenv("SEED_STUDENT_ID")
	if studentID == "" {
		log.Fatal("SEED_STUDENT_ID is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	feesRepo := repository.NewFeesRepo(client.Database(mongoDB))

	record := &model.FeeRecord{
		StudentID:        studentID,
		OverallDueAmount: 230000,
		Semesters:        demoSemesters(),
	}

	if err := feesRepo.Upsert(ctx, record); err != nil {
		log.Fatalf("Failed to seed fees: %v", err)
	}

	log.Printf("Seeded %d semesters of fee data for student %s", len(record.Semesters), studentID)
}

func demoSemesters() []model.FeeSemester {
	baseBreakdown := map[string]int{
		"tuitionFee":      175000,
		"hostelFee":       28000,
		"registrationFee": 1000,
		"examFee":         1000,
		"messFee":         25000,
	}

	semesters := make([]model.FeeSemester, 0, 6)
	for i := 1; i <= 6; i++ {
		total := 0
		for _, v := range baseBreakdown {
			total += v
		}

		sem := model.FeeSemester{
			Semester:     i,
			Status:       "paid",
			DueDate:      time.Date(2025, time.Month(i*2), 28, 0, 0, 0, 0, time.UTC),
			FeeBreakdown: baseBreakdown,
			TotalAmount:  total,
			AmountPaid:   total,
			DueAmount:    0,
			PaymentHistory: []model.FeePayment{
				{
					TransactionID: uuid.New().String(),
					Amount:        total,
					Date:          time.Date(2025, time.Month(i*2), 15, 0, 0, 0, 0, time.UTC),
					Method:        "online_gateway",
					Notes:         "Full payment",
				},
			},
		}

		// Leave the last semester outstanding so the assistant has dues to
		// talk about.
		if i == 6 {
			sem.Status = "due"
			sem.AmountPaid = 0
			sem.DueAmount = total
			sem.PaymentHistory = nil
		}

		semesters = append(semesters, sem)
	}
	return semesters
}
