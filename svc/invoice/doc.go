// Package invoice manages user invoices and drives the entitlement quota:
// creation asks for a slot and commits it together with the insert,
// deletion releases the slot together with the delete, and status changes
// leave the quota alone.
//
// With PostgreSQL, pass pgstore.NewTransactor as WithTransactor and
// NewPostgresRepository as the repository; both the invoice row and the
// usage counter then commit in one transaction. Without a shared
// transaction the service compensates: a failed commit removes the new
// invoice and a failed release restores the deleted one.
package invoice
