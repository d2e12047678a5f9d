package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"smabackend/internal/model"
)

// StatsRepo maintains the derived attendance counters. The increments only
// ever run inside the same transaction as the write they are derived from.
type StatsRepo interface {
	BumpCourseSection(ctx context.Context, courseID, sectionID, teacherID, lastClass string) error
	BumpStudentCourse(ctx context.Context, studentID, courseID string) error
	MergeSummary(ctx context.Context, studentID, sectionID string) error
	GetCourseSection(ctx context.Context, courseID, sectionID string) (*model.CourseSectionStats, error)
	GetStudentCourse(ctx context.Context, studentID, courseID string) (*model.StudentCourseStats, error)
}

type statsRepo struct {
	courseSections *mongo.Collection
	studentCourses *mongo.Collection
	summaries      *mongo.Collection
}

func NewStatsRepo(db *mongo.Database) StatsRepo {
	return &statsRepo{
		courseSections: db.Collection("course_sections"),
		studentCourses: db.Collection("student_course_stats"),
		summaries:      db.Collection("attendance_summary"),
	}
}

func (r *statsRepo) BumpCourseSection(ctx context.Context, courseID, sectionID, teacherID, lastClass string) error {
	update := bson.M{
		"$set": bson.M{
			"courseId":  courseID,
			"sectionId": sectionID,
			"teacherId": teacherID,
			"lastClass": lastClass,
		},
		"$inc": bson.M{"totalSessions": 1},
	}
	_, err := r.courseSections.UpdateOne(ctx, bson.M{"_id": courseID + "_" + sectionID},
		update, options.Update().SetUpsert(true))
	return err
}

func (r *statsRepo) BumpStudentCourse(ctx context.Context, studentID, courseID string) error {
	update := bson.M{
		"$set": bson.M{
			"studentId": studentID,
			"courseId":  courseID,
		},
		"$inc": bson.M{"sessionsAttended": 1},
	}
	_, err := r.studentCourses.UpdateOne(ctx, bson.M{"_id": studentID + "_" + courseID},
		update, options.Update().SetUpsert(true))
	return err
}

func (r *statsRepo) MergeSummary(ctx context.Context, studentID, sectionID string) error {
	update := bson.M{
		"$set": bson.M{"sectionId": sectionID},
	}
	_, err := r.summaries.UpdateOne(ctx, bson.M{"_id": studentID},
		update, options.Update().SetUpsert(true))
	return err
}

func (r *statsRepo) GetCourseSection(ctx context.Context, courseID, sectionID string) (*model.CourseSectionStats, error) {
	var stats model.CourseSectionStats
	err := r.courseSections.FindOne(ctx, bson.M{"_id": courseID + "_" + sectionID}).Decode(&stats)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *statsRepo) GetStudentCourse(ctx context.Context, studentID, courseID string) (*model.StudentCourseStats, error) {
	var stats model.StudentCourseStats
	err := r.studentCourses.FindOne(ctx, bson.M{"_id": studentID + "_" + courseID}).Decode(&stats)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
