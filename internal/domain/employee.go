package domain

import "time"

type EmployeeStatus string

const (
	EmployeeStatusActive EmployeeStatus = "ACTIVE"
	EmployeeStatusLeft   EmployeeStatus = "LEFT"
)

type Employee struct {
	ID        int32          `json:"id"`
	TenantID  int32          `json:"tenant_id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Status    EmployeeStatus `json:"status"`
	CreatedOn time.Time      `json:"created_on"`
}
