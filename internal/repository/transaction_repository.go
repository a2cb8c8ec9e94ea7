package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/ip-manager/internal/model"
)

const transactionColumns = "id, customer_name, phone_number, product_id, product_name, sub_name, sub_type, quantity, selling_price, total_amount, profit, status, date, start_date, duration, expiry_date, activation_code, m3u_url, notes, created_at"

// TransactionRepo reads and writes the transactions table.
type TransactionRepo struct{ DB sqlx.ExtContext }

func NewTransactionRepo(db sqlx.ExtContext) *TransactionRepo { return &TransactionRepo{DB: db} }

// ListTransactions returns all transactions, newest first.
func (r *TransactionRepo) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	txs := []model.Transaction{}
	err := sqlx.SelectContext(ctx, r.DB, &txs,
		"SELECT "+transactionColumns+" FROM transactions ORDER BY created_at DESC, id DESC")
	return txs, err
}

// GetTransaction fetches one transaction.
func (r *TransactionRepo) GetTransaction(ctx context.Context, id string) (model.Transaction, error) {
	var tx model.Transaction
	err := sqlx.GetContext(ctx, r.DB, &tx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id=? LIMIT 1", id)
	return tx, notFound(err)
}

// InsertTransaction stores a new transaction.
func (r *TransactionRepo) InsertTransaction(ctx context.Context, tx model.Transaction) error {
	_, err := sqlx.NamedExecContext(ctx, r.DB,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES (:id, :customer_name, :phone_number, :product_id, :product_name, :sub_name, :sub_type,
		         :quantity, :selling_price, :total_amount, :profit, :status, :date, :start_date, :duration,
		         :expiry_date, :activation_code, :m3u_url, :notes, :created_at)`, tx)
	if isDuplicate(err) {
		return ErrConflict
	}
	return err
}

// SaveTransaction overwrites the editable columns of tx. Inventory is not
// touched.
func (r *TransactionRepo) SaveTransaction(ctx context.Context, tx model.Transaction) error {
	return mustAffect(sqlx.NamedExecContext(ctx, r.DB,
		`UPDATE transactions SET customer_name=:customer_name, phone_number=:phone_number,
		 product_id=:product_id, product_name=:product_name, sub_name=:sub_name, sub_type=:sub_type,
		 quantity=:quantity, selling_price=:selling_price, total_amount=:total_amount, profit=:profit,
		 status=:status, start_date=:start_date, duration=:duration, expiry_date=:expiry_date,
		 activation_code=:activation_code, m3u_url=:m3u_url, notes=:notes
		 WHERE id=:id`, tx))
}

// DeleteTransaction removes a transaction without restoring stock.
func (r *TransactionRepo) DeleteTransaction(ctx context.Context, id string) error {
	return mustAffect(r.DB.ExecContext(ctx, "DELETE FROM transactions WHERE id=?", id))
}

// UpsertTransaction inserts tx or overwrites the row with the same id.
// Used by data import only; stock is not adjusted.
func (r *TransactionRepo) UpsertTransaction(ctx context.Context, tx model.Transaction) error {
	_, err := sqlx.NamedExecContext(ctx, r.DB,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES (:id, :customer_name, :phone_number, :product_id, :product_name, :sub_name, :sub_type,
		         :quantity, :selling_price, :total_amount, :profit, :status, :date, :start_date, :duration,
		         :expiry_date, :activation_code, :m3u_url, :notes, :created_at)
		 ON DUPLICATE KEY UPDATE customer_name=VALUES(customer_name), phone_number=VALUES(phone_number),
		 product_id=VALUES(product_id), product_name=VALUES(product_name), sub_name=VALUES(sub_name),
		 sub_type=VALUES(sub_type), quantity=VALUES(quantity), selling_price=VALUES(selling_price),
		 total_amount=VALUES(total_amount), profit=VALUES(profit), status=VALUES(status), date=VALUES(date),
		 start_date=VALUES(start_date), duration=VALUES(duration), expiry_date=VALUES(expiry_date),
		 activation_code=VALUES(activation_code), m3u_url=VALUES(m3u_url), notes=VALUES(notes)`, tx)
	return err
}
