package portal

// User is a portal account as seen by administrators.
type User struct {
	ID              int64  `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	Email           string `json:"email" yaml:"email"`
	ContactNumber   string `json:"contactNumber,omitempty" yaml:"contactNumber,omitempty"`
	Role            string `json:"role" yaml:"role"`
	AvatarURL       string `json:"avatarUrl,omitempty" yaml:"avatarUrl,omitempty"`
	IDFrontImageURL string `json:"idFrontImageUrl,omitempty" yaml:"idFrontImageUrl,omitempty"`
	IDBackImageURL  string `json:"idBackImageUrl,omitempty" yaml:"idBackImageUrl,omitempty"`
	SelfieImageURL  string `json:"selfieImageUrl,omitempty" yaml:"selfieImageUrl,omitempty"`
}

// UserUpdate holds the editable account fields. Empty fields are left as is.
type UserUpdate struct {
	Name          string `json:"name,omitempty"`
	ContactNumber string `json:"contactNumber,omitempty"`
}

// Gem listing statuses.
const (
	GemPending  = "PENDING"
	GemApproved = "APPROVED"
	GemRejected = "REJECTED"
)

// Gem is a listing submitted by a seller.
type Gem struct {
	ID                  int64         `json:"id" yaml:"id"`
	Name                string        `json:"name" yaml:"name"`
	Category            string        `json:"category,omitempty" yaml:"category,omitempty"`
	Carat               float64       `json:"carat,omitempty" yaml:"carat,omitempty"`
	Price               float64       `json:"price,omitempty" yaml:"price,omitempty"`
	ListingType         string        `json:"listingType,omitempty" yaml:"listingType,omitempty"`
	Status              string        `json:"status" yaml:"status"`
	CertificationNumber string        `json:"certificationNumber,omitempty" yaml:"certificationNumber,omitempty"`
	Description         string        `json:"description,omitempty" yaml:"description,omitempty"`
	Origin              string        `json:"origin,omitempty" yaml:"origin,omitempty"`
	SellerID            int64         `json:"sellerId,omitempty" yaml:"sellerId,omitempty"`
	ImageURLs           []string      `json:"imageUrls,omitempty" yaml:"imageUrls,omitempty"`
	Certificates        []Certificate `json:"certificates,omitempty" yaml:"certificates,omitempty"`
	RejectionReason     string        `json:"rejectionReason,omitempty" yaml:"rejectionReason,omitempty"`
	CreatedAt           string        `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt           string        `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// Verified reports whether any certificate of the gem has been verified.
func (g *Gem) Verified() bool {
	for _, c := range g.Certificates {
		if c.Verified {
			return true
		}
	}
	return false
}

// Certificate is a gemmological certificate attached to a listing.
type Certificate struct {
	ID                int64  `json:"id" yaml:"id"`
	CertificateNumber string `json:"certificateNumber" yaml:"certificateNumber"`
	IssuingAuthority  string `json:"issuingAuthority,omitempty" yaml:"issuingAuthority,omitempty"`
	IssueDate         string `json:"issueDate,omitempty" yaml:"issueDate,omitempty"`
	FileURL           string `json:"fileUrl,omitempty" yaml:"fileUrl,omitempty"`
	Verified          bool   `json:"verified" yaml:"verified"`
	VerifiedAt        string `json:"verifiedAt,omitempty" yaml:"verifiedAt,omitempty"`
}

// Ticket statuses accepted in a reply.
const (
	TicketOpen       = "OPEN"
	TicketInProgress = "IN_PROGRESS"
	TicketResolved   = "RESOLVED"
	TicketClosed     = "CLOSED"
)

// TicketStatuses lists the valid ticket statuses.
func TicketStatuses() []string {
	return []string{TicketOpen, TicketInProgress, TicketResolved, TicketClosed}
}

// Ticket is a support request raised by a user.
type Ticket struct {
	ID          int64  `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Priority    string `json:"priority,omitempty" yaml:"priority,omitempty"`
	Status      string `json:"status" yaml:"status"`
	AdminReply  string `json:"adminReply,omitempty" yaml:"adminReply,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
}

// TicketReply is an administrator's answer to a ticket.
type TicketReply struct {
	AdminReply string `json:"adminReply"`
	Status     string `json:"status"`
}

// ProfileUpdate holds the fields a user may change on their own profile.
type ProfileUpdate struct {
	Name          string `json:"name,omitempty"`
	ContactNumber string `json:"contactNumber,omitempty"`
}

// PasswordChange is the body of a password change request.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
