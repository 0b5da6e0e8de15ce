package model

import "time"

// RoleOperator is the only role issued in access tokens.
const RoleOperator = "OPERATOR"

// Operator is a back-office account that manages the catalog. The password
// hash never leaves the server.
type Operator struct {
	ID           string    `json:"id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	Role         string    `json:"role" bson:"role"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}
