package orders

type Status string

const (
	StatusPending       Status = "pending"
	StatusStockReserved Status = "stock_reserved"
	StatusConfirmed     Status = "confirmed"
	StatusPreparing     Status = "preparing"
	StatusDelivering    Status = "delivering"
	StatusCompleted     Status = "completed"
	StatusCancelled     Status = "cancelled"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:       {StatusStockReserved: true, StatusCancelled: true},
	StatusStockReserved: {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed:     {StatusPreparing: true, StatusCancelled: true},
	StatusPreparing:     {StatusDelivering: true},
	StatusDelivering:    {StatusCompleted: true},
	StatusCompleted:     {},
	StatusCancelled:     {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
