package importer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/propstack/buyerbase/pkg/buyers"
	"github.com/propstack/buyerbase/pkg/database"
	"github.com/propstack/buyerbase/pkg/models"
)

const csvHeader = "fullName,email,phone,city,propertyType,bhk,purpose,budgetMin,budgetMax,timeline,source,notes,tags,status"

var importer = buyers.Actor{UserID: 1, Email: "agent@example.com"}

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestImportCSV(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil)

	file := csvHeader + "\n" +
		`Ravi Sharma,ravi@example.com,9876543210,Chandigarh,Apartment,2,Buy,4000000,5000000,0-3m,Website,call evenings,"hot,nri",New` + "\n" +
		`Priya Verma,,9123456789,Mohali,Plot,,Rent,,,Exploring,Referral,,,` + "\n"

	count, err := svc.ImportCSV(context.Background(), strings.NewReader(file), importer)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var all []models.Buyer
	require.NoError(t, db.Order("id").Find(&all).Error)
	require.Len(t, all, 2)

	assert.Equal(t, "Ravi Sharma", all[0].FullName)
	assert.Equal(t, []string{"hot", "nri"}, all[0].Tags)
	require.NotNil(t, all[0].BudgetMin)
	assert.Equal(t, 4000000, *all[0].BudgetMin)
	assert.Equal(t, importer.UserID, all[0].OwnerID)

	// Blank optional columns come through as nils and default status.
	assert.Nil(t, all[1].Email)
	assert.Nil(t, all[1].BudgetMin)
	assert.Empty(t, all[1].Tags)
	assert.Equal(t, "New", all[1].Status)

	var entries []models.BuyerHistory
	require.NoError(t, db.Order("id").Find(&entries).Error)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, models.ActionImported, e.Diff.Action)
		assert.Equal(t, importer.UserID, e.ChangedByID)
	}
}

func TestImportCSV_RowErrorsBlockWholeBatch(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil)

	file := csvHeader + "\n" +
		`Ravi Sharma,,9876543210,Chandigarh,Apartment,2,Buy,,,0-3m,Website,,,New` + "\n" +
		`Bad Row,,98ab,Chandigarh,Apartment,2,Buy,,,0-3m,Website,,,New` + "\n" +
		`Worse Row,,9876543210,Gotham,Apartment,2,Buy,notanumber,,0-3m,Website,,,New` + "\n"

	_, err := svc.ImportCSV(context.Background(), strings.NewReader(file), importer)

	var rerr *RowErrors
	require.ErrorAs(t, err, &rerr)
	require.Len(t, rerr.Rows, 2)

	assert.Equal(t, 2, rerr.Rows[0].Row)
	assert.Contains(t, strings.Join(rerr.Rows[0].Errors, "; "), "phone")
	assert.Equal(t, 3, rerr.Rows[1].Row)
	assert.Contains(t, strings.Join(rerr.Rows[1].Errors, "; "), "budgetMin")

	// Valid rows must not sneak in when any row fails.
	var count int64
	require.NoError(t, db.Model(&models.Buyer{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestImportCSV_CrossFieldRules(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil)

	file := csvHeader + "\n" +
		`Ravi Sharma,,9876543210,Chandigarh,Apartment,,Buy,,,0-3m,Website,,,New` + "\n" +
		`Priya Verma,,9123456789,Mohali,Plot,,Buy,5000000,4000000,0-3m,Website,,,New` + "\n"

	_, err := svc.ImportCSV(context.Background(), strings.NewReader(file), importer)

	var rerr *RowErrors
	require.ErrorAs(t, err, &rerr)
	require.Len(t, rerr.Rows, 2)
	assert.Contains(t, strings.Join(rerr.Rows[0].Errors, "; "), "bhk")
	assert.Contains(t, strings.Join(rerr.Rows[1].Errors, "; "), "budgetMax")
}

func TestImportCSV_RowCeiling(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil)

	var sb strings.Builder
	sb.WriteString(csvHeader + "\n")
	for i := 0; i < MaxRows+1; i++ {
		fmt.Fprintf(&sb, "Buyer %03d,,9876543210,Chandigarh,Plot,,Buy,,,0-3m,Website,,,New\n", i)
	}

	_, err := svc.ImportCSV(context.Background(), strings.NewReader(sb.String()), importer)
	assert.ErrorIs(t, err, ErrTooManyRows)

	var count int64
	require.NoError(t, db.Model(&models.Buyer{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestImportCSV_ExactCeilingAccepted(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil)

	var sb strings.Builder
	sb.WriteString(csvHeader + "\n")
	for i := 0; i < MaxRows; i++ {
		fmt.Fprintf(&sb, "Buyer %03d,,9876543210,Chandigarh,Plot,,Buy,,,0-3m,Website,,,New\n", i)
	}

	count, err := svc.ImportCSV(context.Background(), strings.NewReader(sb.String()), importer)
	require.NoError(t, err)
	assert.Equal(t, MaxRows, count)
}

func TestImportCSV_AtomicBatch(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil)

	// Break the history table so inserts fail mid-batch.
	require.NoError(t, db.Migrator().DropTable(&models.BuyerHistory{}))

	file := csvHeader + "\n" +
		`Ravi Sharma,,9876543210,Chandigarh,Plot,,Buy,,,0-3m,Website,,,New` + "\n" +
		`Priya Verma,,9123456789,Mohali,Plot,,Rent,,,Exploring,Referral,,,` + "\n"

	_, err := svc.ImportCSV(context.Background(), strings.NewReader(file), importer)
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Buyer{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestImportCSV_EmptyAndMalformed(t *testing.T) {
	svc := NewService(setupTestDB(t), nil)
	ctx := context.Background()

	t.Run("empty file", func(t *testing.T) {
		_, err := svc.ImportCSV(ctx, strings.NewReader(""), importer)
		assert.ErrorIs(t, err, ErrNoRows)
	})

	t.Run("header only", func(t *testing.T) {
		_, err := svc.ImportCSV(ctx, strings.NewReader(csvHeader+"\n"), importer)
		assert.ErrorIs(t, err, ErrNoRows)
	})

	t.Run("missing column", func(t *testing.T) {
		_, err := svc.ImportCSV(ctx, strings.NewReader("fullName,email\nRavi,\n"), importer)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing column")
	})
}
