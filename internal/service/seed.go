package service

// DemoReservations are preloaded when the desk starts in demo mode.
func DemoReservations() []JoinRequest {
	return []JoinRequest{
		{Name: "Crishine Bangay", Contact: "09171234567", Age: 21, Room: "A-201", TimeSlot: "10:00 - 12:00"},
		{Name: "Evangeline Herondio", Contact: "09183456721", Age: 22, Room: "A-102", TimeSlot: "14:00 - 16:00"},
		{Name: "Nudo Christine", Contact: "09224567891", Age: 24, Room: "B-101", TimeSlot: "13:00 - 15:00"},
		{Name: "Roldan Torrejas", Contact: "09335678912", Age: 23, Room: "B-202", TimeSlot: "09:00 - 11:00"},
		{Name: "Ryan Ligasan", Contact: "09451234567", Age: 27, Room: "C-105", TimeSlot: "08:00 - 10:00"},
	}
}
