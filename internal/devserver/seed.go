package devserver

import (
	"github.com/felixgeelhaar/gemora/internal/portal"
)

// Demo credentials loaded by Config.Seed.
const (
	SeedAdminEmail    = "admin@gemora.lk"
	SeedAdminPassword = "admin123"
	SeedUserEmail     = "user@gemora.lk"
	SeedUserPassword  = "user123"
)

func (s *Server) seed() error {
	if _, _, err := s.data.addUser(portal.User{
		Name:  "Portal Admin",
		Email: SeedAdminEmail,
		Role:  roleAdmin,
	}, SeedAdminPassword); err != nil {
		return err
	}
	seller, _, err := s.data.addUser(portal.User{
		Name:          "Nimal Perera",
		Email:         SeedUserEmail,
		ContactNumber: "0771234567",
		Role:          roleUser,
	}, SeedUserPassword)
	if err != nil {
		return err
	}

	s.data.addGem(portal.Gem{
		Name:                "Ceylon Blue Sapphire",
		Category:            "Sapphire",
		Carat:               3.2,
		Price:               1250000,
		ListingType:         "AUCTION",
		CertificationNumber: "NGJA-2024-0192",
		Origin:              "Ratnapura",
		SellerID:            seller.ID,
		Certificates: []portal.Certificate{{
			ID:                1,
			CertificateNumber: "NGJA-2024-0192",
			IssuingAuthority:  "National Gem and Jewellery Authority",
			Verified:          true,
		}},
	})
	s.data.addGem(portal.Gem{
		Name:        "Padparadscha",
		Category:    "Sapphire",
		Carat:       1.8,
		Price:       2100000,
		ListingType: "FIXED",
		Origin:      "Elahera",
		SellerID:    seller.ID,
	})
	s.data.addGem(portal.Gem{
		Name:        "Star Ruby",
		Category:    "Ruby",
		Carat:       2.4,
		Price:       890000,
		ListingType: "AUCTION",
		Status:      portal.GemApproved,
		SellerID:    seller.ID,
	})

	s.data.addTicket(portal.Ticket{
		Title:       "Certificate upload fails",
		Description: "The certificate PDF is rejected when I submit my listing.",
		Priority:    "HIGH",
	})
	s.data.addTicket(portal.Ticket{
		Title:    "Change payout account",
		Priority: "LOW",
	})
	return nil
}

// Revoke invalidates every token issued to userID so far.
func (s *Server) Revoke(userID int64) bool {
	_, ok := s.data.updateUser(userID, func(a *account) {
		a.tokenVersion++
	})
	return ok
}

// UserID returns the id of the account registered under email.
func (s *Server) UserID(email string) (int64, bool) {
	for _, u := range s.data.listUsers() {
		if u.Email == email {
			return u.ID, true
		}
	}
	return 0, false
}
