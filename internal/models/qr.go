package models

import "github.com/golang-jwt/jwt/v4"

// QRClaims are embedded in the token printed on an item's QR code
type QRClaims struct {
	ItemID   uint   `json:"item_id"`
	OwnerUID string `json:"owner_uid"`
	jwt.RegisteredClaims
}

// QRRegistration is returned when an owner registers an item for QR labels
type QRRegistration struct {
	ItemID   uint   `json:"item_id"`
	Token    string `json:"token"`
	ScanURL  string `json:"scan_url"`
	ImageURL string `json:"image_url"`
}
