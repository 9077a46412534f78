package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Prodrious/new-payment-tracker/internal/models"
)

type mockStudentRepo struct {
	students map[string]models.Student
	order    []string
	replaced []models.Student
	cleared  bool
	err      error
}

func (m *mockStudentRepo) List(ctx context.Context) ([]models.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Student, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.students[id])
	}
	return out, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	if student.ID == "" {
		student.ID = "generated"
	}
	m.students[student.ID] = *student
	m.order = append(m.order, student.ID)
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) AppendTopup(ctx context.Context, id string, topup models.Topup) error {
	s, ok := m.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.Topups = append(s.Topups, topup)
	m.students[id] = s
	return nil
}

func (m *mockStudentRepo) ReplaceAll(ctx context.Context, students []models.Student) error {
	m.replaced = students
	return nil
}

func (m *mockStudentRepo) DeleteAll(ctx context.Context) error {
	m.cleared = true
	return nil
}

func TestStudentServiceCreate(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, nil, validator.New(), zap.NewNop())

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		Name:        "Alya",
		ClassName:   "Algebra",
		HourlyRate:  150,
		PaymentType: "upfront",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.Equal(t, models.PaymentTypeUpfront, student.PaymentType)
	assert.NotNil(t, student.Topups)
	assert.Len(t, repo.students, 1)
}

func TestStudentServiceCreateRejectsUnknownPaymentType(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		Name:        "Alya",
		ClassName:   "Algebra",
		HourlyRate:  150,
		PaymentType: "monthly",
	})
	require.Error(t, err)
}

func TestStudentServiceUpdate(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"s1": {ID: "s1", Name: "Old", ClassName: "Algebra", HourlyRate: 100, PaymentType: models.PaymentTypePostpaid},
	}}
	svc := NewStudentService(repo, nil, validator.New(), zap.NewNop())

	updated, err := svc.Update(context.Background(), "s1", UpdateStudentRequest{
		Name:        "New",
		ClassName:   "Geometry",
		HourlyRate:  120,
		PaymentType: "postpaid",
	})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, 120.0, repo.students["s1"].HourlyRate)
}

func TestStudentServiceUpdateMissing(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, nil, validator.New(), zap.NewNop())

	_, err := svc.Update(context.Background(), "ghost", UpdateStudentRequest{
		Name:        "New",
		ClassName:   "Geometry",
		HourlyRate:  120,
		PaymentType: "postpaid",
	})
	require.Error(t, err)
}

func TestStudentServiceAddTopup(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"s1": {ID: "s1", Name: "Alya", ClassName: "Algebra", HourlyRate: 100, PaymentType: models.PaymentTypeUpfront},
	}}
	svc := NewStudentService(repo, nil, validator.New(), zap.NewNop())

	when := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	student, err := svc.AddTopup(context.Background(), "s1", TopupRequest{Amount: 500, Date: &when})
	require.NoError(t, err)
	require.Len(t, student.Topups, 1)
	assert.Equal(t, 500.0, student.Topups[0].Amount)
	assert.Equal(t, when, student.Topups[0].Date)
	assert.NotEmpty(t, student.Topups[0].ID)
}

func TestStudentServiceAddTopupRejectsPostpaid(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"s1": {ID: "s1", Name: "Ben", PaymentType: models.PaymentTypePostpaid},
	}}
	svc := NewStudentService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.AddTopup(context.Background(), "s1", TopupRequest{Amount: 500})
	require.Error(t, err)
	assert.Len(t, repo.students["s1"].Topups, 0)
}

func TestStudentServiceReplaceValidates(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, nil, validator.New(), zap.NewNop())

	err := svc.Replace(context.Background(), []models.Student{
		{ID: "s1", Name: "Alya", PaymentType: "weekly"},
	})
	require.Error(t, err)
	assert.Nil(t, repo.replaced)

	err = svc.Replace(context.Background(), []models.Student{
		{ID: "s1", Name: "Alya", PaymentType: models.PaymentTypeUpfront},
	})
	require.NoError(t, err)
	assert.Len(t, repo.replaced, 1)
}

func TestStudentServiceClear(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{"s1": {ID: "s1"}}}
	svc := NewStudentService(repo, nil, validator.New(), zap.NewNop())

	require.NoError(t, svc.Clear(context.Background()))
	assert.True(t, repo.cleared)
}
