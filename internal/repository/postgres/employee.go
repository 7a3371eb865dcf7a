package postgres

import (
	"context"
	"database/sql"

	"kudos-backend/internal/domain"
	"kudos-backend/internal/repository"

	"github.com/lib/pq"
)

type employeeRepository struct {
	db *sql.DB
}

func NewEmployeeRepository(db *sql.DB) repository.EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) Create(ctx context.Context, emp *domain.Employee) error {
	query := `INSERT INTO employees (tenant_id, name, email, status, created_on)
	          VALUES ($1, $2, $3, $4, NOW()) RETURNING id`
	return r.db.QueryRowContext(ctx, query, emp.TenantID, emp.Name, emp.Email, emp.Status).Scan(&emp.ID)
}

func (r *employeeRepository) GetByID(ctx context.Context, id int32) (*domain.Employee, error) {
	emp := &domain.Employee{}
	query := `SELECT id, tenant_id, name, email, status, created_on FROM employees WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&emp.ID, &emp.TenantID, &emp.Name, &emp.Email, &emp.Status, &emp.CreatedOn)
	if err == sql.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return emp, nil
}

func (r *employeeRepository) ListActiveByTenant(ctx context.Context, tenantID int32) ([]domain.Employee, error) {
	query := `SELECT id, tenant_id, name, email, status, created_on
	          FROM employees WHERE tenant_id = $1 AND status = 'ACTIVE' ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emps []domain.Employee
	for rows.Next() {
		var emp domain.Employee
		if err := rows.Scan(&emp.ID, &emp.TenantID, &emp.Name, &emp.Email, &emp.Status, &emp.CreatedOn); err != nil {
			return nil, err
		}
		emps = append(emps, emp)
	}
	return emps, rows.Err()
}

func (r *employeeRepository) ExistsAll(ctx context.Context, tenantID int32, ids []int32) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	var count int32
	query := `SELECT count(DISTINCT id) FROM employees
	          WHERE tenant_id = $1 AND status = 'ACTIVE' AND id = ANY($2)`
	err := r.db.QueryRowContext(ctx, query, tenantID, pq.Array(ids)).Scan(&count)
	if err != nil {
		return false, err
	}
	distinct := make(map[int32]struct{}, len(ids))
	for _, id := range ids {
		distinct[id] = struct{}{}
	}
	return count == int32(len(distinct)), nil
}
