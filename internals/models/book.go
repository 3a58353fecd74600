package models

type Book struct {
	Id          int    `json:"-" db:"id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	Author      string `json:"author" db:"author"`
	Genre       string `json:"genre" db:"genre"`
	Department  string `json:"department" db:"department"`
	Count       int    `json:"count" db:"count"`
	Vendor      string `json:"vendor" db:"vendor"`
	VendorId    int    `json:"vendor_id" db:"vendor_id"`
	Publisher   string `json:"publisher" db:"publisher"`
	PublisherId int    `json:"publisher_id" db:"publisher_id"`
}
