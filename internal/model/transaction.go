package model

// Transaction is one human-readable audit entry tied to a user action.
// Values are immutable once recorded.
type Transaction struct {
	ID          string `json:"id"` // "T001", "T002", ...
	UserName    string `json:"user_name"`
	Description string `json:"description"`
	Date        string `json:"date"` // MM/DD/YYYY
	Time        string `json:"time"` // HH:MM:SS
}

// SystemLogEntry is one timestamped operational line, already rendered as
// "[MM/DD/YYYY HH:MM:SS] message".
type SystemLogEntry string
