package snapshot

const TableName = "daily_hourly_metrics"

const (
	ColumnDateTime       = "DateTime"
	ColumnRoomsSold      = "Rooms Sold"
	ColumnRoomsAvailable = "Rooms Available"
	ColumnArrivals       = "Arrivals"
	ColumnOOORooms       = "OOO Rooms"
	ColumnKingRate       = "King Rate"
	ColumnQQRate         = "QQ Rate"
)

// Sampling hours. Arrivals are read from the mid-afternoon snapshot; every
// other end-of-day figure from the evening one.
const (
	ArrivalsHour = 15
	EndOfDayHour = 21
)

const DefaultCapacity = 60

// Columns is the stored table layout as name:type pairs, in order.
var Columns = []string{
	ColumnDateTime + ":TIMESTAMP",
	ColumnRoomsSold + ":DOUBLE",
	ColumnRoomsAvailable + ":DOUBLE",
	ColumnArrivals + ":DOUBLE",
	ColumnOOORooms + ":DOUBLE",
	ColumnKingRate + ":VARCHAR",
	ColumnQQRate + ":VARCHAR",
}

// ColumnNames returns the bare column names of the stored table.
func ColumnNames() []string {
	return []string{
		ColumnDateTime,
		ColumnRoomsSold,
		ColumnRoomsAvailable,
		ColumnArrivals,
		ColumnOOORooms,
		ColumnKingRate,
		ColumnQQRate,
	}
}
