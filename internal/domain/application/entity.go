package application

import (
	"strconv"
	"time"
)

type Application struct {
	ID          int64
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	LinkedIn    string
	WhyYou      string
	PositionID  int64
	CityID      int64
	CreatedAt   time.Time
}

type File struct {
	ID            int64
	FileSrc       string
	ApplicationID int64
}

// StoredFileName is the name an attachment is kept under in the file store.
// Two uploads only collide when one application carries the same sanitized
// name twice.
func StoredFileName(applicationID int64, sanitizedName string) string {
	return strconv.FormatInt(applicationID, 10) + "_" + sanitizedName
}
