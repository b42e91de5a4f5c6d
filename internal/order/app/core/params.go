package core

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type OrderParams struct {
	Port    int
	Store   string
	Migrate bool
}

const (
	// Constraints for customer fields
	MinCustomerNameLen = 2
	MaxCustomerNameLen = 100
	MaxEmailLen        = 100

	// Constraints for lines
	MaxItems        = 50
	MaxItemQuantity = 999

	// in seconds for request handling
	WaitTime = 20

	// Notes written by the kitchen shortcuts
	NotePreparing = "Kitchen started preparing"
	NoteReady     = "Order ready for pickup"

	RMQReconnectionInterval = 5
)
