package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

type Booking struct {
	ID             int64
	OrderNumber    string
	Name           string
	Email          string
	Phone          string
	Date           string
	Time           string
	NumberOfPeople int64
	Status         string
	ReminderSentAt sql.NullTime
	CreatedAt      time.Time
	UserID         sql.NullInt64
}

const bookingColumns = `id, order_number, name, email, phone, date, time, number_of_people, status, reminder_sent_at, created_at, user_id`

func scanBooking(row interface{ Scan(...any) error }) (Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID,
		&b.OrderNumber,
		&b.Name,
		&b.Email,
		&b.Phone,
		&b.Date,
		&b.Time,
		&b.NumberOfPeople,
		&b.Status,
		&b.ReminderSentAt,
		&b.CreatedAt,
		&b.UserID,
	)
	return b, err
}

type CreateBookingParams struct {
	OrderNumber    string
	Name           string
	Email          string
	Phone          string
	Date           string
	Time           string
	NumberOfPeople int64
	Status         string
	UserID         sql.NullInt64
}

const createBooking = `
INSERT INTO bookings (order_number, name, email, phone, date, time, number_of_people, status, user_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateBooking(ctx context.Context, arg CreateBookingParams) (Booking, error) {
	result, err := q.db.ExecContext(ctx, createBooking,
		arg.OrderNumber,
		arg.Name,
		arg.Email,
		arg.Phone,
		arg.Date,
		arg.Time,
		arg.NumberOfPeople,
		arg.Status,
		arg.UserID,
	)
	if err != nil {
		return Booking{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Booking{}, fmt.Errorf("booking id: %w", err)
	}
	return q.GetBookingByID(ctx, id)
}

const getBookingByID = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`

func (q *Queries) GetBookingByID(ctx context.Context, id int64) (Booking, error) {
	return scanBooking(q.db.QueryRowContext(ctx, getBookingByID, id))
}

const getBookingByOrderNumber = `SELECT ` + bookingColumns + ` FROM bookings WHERE order_number = ?`

func (q *Queries) GetBookingByOrderNumber(ctx context.Context, orderNumber string) (Booking, error) {
	return scanBooking(q.db.QueryRowContext(ctx, getBookingByOrderNumber, orderNumber))
}

const countActiveBookingsAt = `
SELECT COUNT(*) FROM bookings
WHERE date = ? AND time = ? AND status IN ('confirmed', 'pending')`

func (q *Queries) CountActiveBookingsAt(ctx context.Context, date, timeValue string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countActiveBookingsAt, date, timeValue).Scan(&count)
	return count, err
}

type BookedSlotRow struct {
	Date string
	Time string
}

const listActiveBookedSlots = `
SELECT date, time FROM bookings
WHERE date >= ? AND date <= ? AND status IN ('confirmed', 'pending')
ORDER BY date, time, id`

// ListActiveBookedSlots compares YYYY-MM-DD strings, which order the same as dates.
func (q *Queries) ListActiveBookedSlots(ctx context.Context, fromDate, toDate string) ([]BookedSlotRow, error) {
	rows, err := q.db.QueryContext(ctx, listActiveBookedSlots, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []BookedSlotRow
	for rows.Next() {
		var row BookedSlotRow
		if err := rows.Scan(&row.Date, &row.Time); err != nil {
			return nil, err
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listBookingsPendingReminder = `
SELECT ` + bookingColumns + ` FROM bookings
WHERE date = ? AND status IN ('confirmed', 'pending') AND reminder_sent_at IS NULL
ORDER BY time, id`

func (q *Queries) ListBookingsPendingReminder(ctx context.Context, date string) ([]Booking, error) {
	return q.listBookings(ctx, listBookingsPendingReminder, date)
}

func (q *Queries) listBookings(ctx context.Context, query string, args ...interface{}) ([]Booking, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listBookingsByUser = `
SELECT ` + bookingColumns + ` FROM bookings
WHERE user_id = ?
ORDER BY created_at DESC, id DESC`

func (q *Queries) ListBookingsByUser(ctx context.Context, userID int64) ([]Booking, error) {
	return q.listBookings(ctx, listBookingsByUser, userID)
}

type SearchBookingsParams struct {
	// Status matches exactly; empty matches every status.
	Status string
	// DatePrefix matches YYYY, YYYY-MM or YYYY-MM-DD.
	DatePrefix string
	// Term is matched as a substring of order number, name or email.
	Term  string
	Limit int64
}

const searchBookings = `
SELECT ` + bookingColumns + ` FROM bookings
WHERE (?1 = '' OR status = ?1)
  AND (?2 = '' OR date LIKE ?2 || '%')
  AND (?3 = '' OR order_number LIKE '%' || ?3 || '%' ESCAPE '\'
               OR name LIKE '%' || ?3 || '%' ESCAPE '\'
               OR email LIKE '%' || ?3 || '%' ESCAPE '\')
ORDER BY created_at DESC, id DESC
LIMIT ?4`

func (q *Queries) SearchBookings(ctx context.Context, arg SearchBookingsParams) ([]Booking, error) {
	return q.listBookings(ctx, searchBookings, arg.Status, arg.DatePrefix, escapeLike(arg.Term), arg.Limit)
}

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

const listBookingDatePeriods = `
SELECT DISTINCT substr(date, 1, ?2) AS period FROM bookings
WHERE (?1 = '' OR date LIKE ?1 || '%')
ORDER BY period`

// ListBookingDatePeriods returns the distinct leading length characters of
// booking dates under prefix: years, months or days depending on length.
func (q *Queries) ListBookingDatePeriods(ctx context.Context, prefix string, length int) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listBookingDatePeriods, prefix, length)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []string
	for rows.Next() {
		var period string
		if err := rows.Scan(&period); err != nil {
			return nil, err
		}
		periods = append(periods, period)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return periods, nil
}

const markReminderSent = `UPDATE bookings SET reminder_sent_at = ? WHERE id = ?`

func (q *Queries) MarkReminderSent(ctx context.Context, id int64, sentAt time.Time) error {
	_, err := q.db.ExecContext(ctx, markReminderSent, sentAt, id)
	return err
}

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsStaff      bool
	CreatedAt    time.Time
}

const userColumns = `id, username, email, password_hash, is_staff, created_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsStaff, &u.CreatedAt)
	return u, err
}

type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
}

const createUser = `INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)`

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	result, err := q.db.ExecContext(ctx, createUser, arg.Username, arg.Email, arg.PasswordHash)
	if err != nil {
		return User{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return User{}, fmt.Errorf("user id: %w", err)
	}
	return q.GetUserByID(ctx, id)
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

// GetUserByUsername matches case-insensitively through the column collation.
const getUserByUsername = `SELECT ` + userColumns + ` FROM users WHERE username = ?`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByUsername, username))
}

const setUserStaff = `UPDATE users SET is_staff = ? WHERE username = ?`

// SetUserStaff returns the number of users updated.
func (q *Queries) SetUserStaff(ctx context.Context, username string, isStaff bool) (int64, error) {
	result, err := q.db.ExecContext(ctx, setUserStaff, isStaff, username)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateBookingStatus = `UPDATE bookings SET status = ? WHERE id = ?`

func (q *Queries) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	_, err := q.db.ExecContext(ctx, updateBookingStatus, status, id)
	return err
}
