package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	inErrors "github.com/Alturino/foodorder/internal/errors"
)

type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Order struct {
	ID              uuid.UUID
	OrderNumber     int64
	DeviceID        string
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	Note            string
	Items           []byte
	District        string
	Village         string
	Subtotal        pgtype.Numeric
	DeliveryFee     pgtype.Numeric
	PlatformFee     pgtype.Numeric
	GrandTotal      pgtype.Numeric
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

const orderColumns = `id, order_number, device_id, customer_name, customer_phone, customer_address,
	note, items, district, village, subtotal, delivery_fee, platform_fee, grand_total, status,
	created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.DeviceID,
		&o.CustomerName,
		&o.CustomerPhone,
		&o.CustomerAddress,
		&o.Note,
		&o.Items,
		&o.District,
		&o.Village,
		&o.Subtotal,
		&o.DeliveryFee,
		&o.PlatformFee,
		&o.GrandTotal,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, inErrors.ErrOrderNotFound
	}
	return o, err
}

const insertOrder = `INSERT INTO orders (
	id, device_id, customer_name, customer_phone, customer_address, note, items, district, village,
	subtotal, delivery_fee, platform_fee, grand_total, status
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING ` + orderColumns

type InsertOrderParams struct {
	ID              uuid.UUID
	DeviceID        string
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	Note            string
	Items           []byte
	District        string
	Village         string
	Subtotal        pgtype.Numeric
	DeliveryFee     pgtype.Numeric
	PlatformFee     pgtype.Numeric
	GrandTotal      pgtype.Numeric
	Status          string
}

func (q *Queries) InsertOrder(c context.Context, arg InsertOrderParams) (Order, error) {
	row := q.db.QueryRow(c, insertOrder,
		arg.ID,
		arg.DeviceID,
		arg.CustomerName,
		arg.CustomerPhone,
		arg.CustomerAddress,
		arg.Note,
		arg.Items,
		arg.District,
		arg.Village,
		arg.Subtotal,
		arg.DeliveryFee,
		arg.PlatformFee,
		arg.GrandTotal,
		arg.Status,
	)
	return scanOrder(row)
}

const findOrderByNumber = `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`

func (q *Queries) FindOrderByNumber(c context.Context, orderNumber int64) (Order, error) {
	return scanOrder(q.db.QueryRow(c, findOrderByNumber, orderNumber))
}

const findOrdersByDevice = `SELECT ` + orderColumns + `
FROM orders WHERE device_id = $1 ORDER BY created_at DESC, order_number DESC`

func (q *Queries) FindOrdersByDevice(c context.Context, deviceID string) ([]Order, error) {
	rows, err := q.db.Query(c, findOrdersByDevice, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// updateOrderStatus only succeeds while the row still holds the expected
// status, so two concurrent transitions cannot both apply.
const updateOrderStatus = `UPDATE orders SET status = $3, updated_at = NOW()
WHERE order_number = $1 AND status = $2
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	OrderNumber int64
	From        string
	To          string
}

func (q *Queries) UpdateOrderStatus(c context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(c, updateOrderStatus, arg.OrderNumber, arg.From, arg.To)
	o, err := scanOrder(row)
	if errors.Is(err, inErrors.ErrOrderNotFound) {
		return Order{}, inErrors.ErrInvalidTransition
	}
	return o, err
}
