package dto

// MembershipActionRequest carries the reason for a cancel or suspend
type MembershipActionRequest struct {
	Reason string `json:"reason"`
}

// ExtendMembershipRequest is the request body for extending a membership
type ExtendMembershipRequest struct {
	Days int `json:"days" binding:"required"`
}

// MembershipStatusResponse summarizes a member's standing
type MembershipStatusResponse struct {
	HasActiveMembership bool   `json:"has_active_membership"`
	DaysRemaining       int    `json:"days_remaining"`
	MembershipID        string `json:"membership_id,omitempty"`
	PlanID              string `json:"plan_id,omitempty"`
	EndDate             string `json:"end_date,omitempty"`
}
