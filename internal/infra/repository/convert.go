package repository

import (
	"github.com/soscomida/soscomida/internal/domain"
	"github.com/soscomida/soscomida/internal/infra/database/models"
)

func principalFromModel(m models.Principal) domain.Principal {
	return domain.Principal{
		ID:              m.ID,
		Name:            m.Name,
		Email:           m.Email,
		Role:            domain.Role(m.Role),
		ApprovalStatus:  domain.ApprovalStatus(m.ApprovalStatus),
		InstitutionName: m.InstitutionName,
		CreatedAt:       m.CDate,
	}
}

func donationFromModel(m models.DonationRequest) domain.DonationRequest {
	return domain.DonationRequest{
		ID:               m.ID,
		OwnerID:          m.OwnerID,
		Kind:             domain.DonationKind(m.Kind),
		DonorName:        m.DonorName,
		Phone:            m.Phone,
		Address:          m.Address,
		ReceiptRequestID: m.ReceiptRequestID,
		DeliveryPlace:    m.DeliveryPlace,
		DeliveryDate:     m.DeliveryDate,
		Value:            m.Value,
		Status:           domain.RequestStatus(m.Status),
		CreatedAt:        m.CDate,
	}
}

func donationToModel(d domain.DonationRequest) models.DonationRequest {
	return models.DonationRequest{
		ID:               d.ID,
		OwnerID:          d.OwnerID,
		Kind:             string(d.Kind),
		DonorName:        d.DonorName,
		Phone:            d.Phone,
		Address:          d.Address,
		ReceiptRequestID: d.ReceiptRequestID,
		DeliveryPlace:    d.DeliveryPlace,
		DeliveryDate:     d.DeliveryDate,
		Value:            d.Value,
		Status:           string(d.Status),
		CDate:            d.CreatedAt,
	}
}

func receiptFromModel(m models.ReceiptRequest) domain.ReceiptRequest {
	return domain.ReceiptRequest{
		ID:             m.ID,
		OwnerID:        m.OwnerID,
		Name:           m.Name,
		Phone:          m.Phone,
		Address:        m.Address,
		HouseholdSize:  m.HouseholdSize,
		Needs:          m.Needs,
		Baskets:        m.Baskets,
		HygieneKits:    m.HygieneKits,
		Pads:           m.Pads,
		ChildDiapers:   m.ChildDiapers,
		ElderlyDiapers: m.ElderlyDiapers,
		PixKeyType:     m.PixKeyType,
		PixKey:         m.PixKey,
		Fulfillment: domain.Fulfillment{
			BasketsDelivered: m.BasketsDelivered,
			FoodKgDelivered:  m.FoodKgDelivered,
			ValueDelivered:   m.ValueDelivered,
			DeliveredAt:      m.DeliveredAt,
		},
		Status:    domain.RequestStatus(m.Status),
		CreatedAt: m.CDate,
	}
}

func receiptToModel(r domain.ReceiptRequest) models.ReceiptRequest {
	return models.ReceiptRequest{
		ID:               r.ID,
		OwnerID:          r.OwnerID,
		Name:             r.Name,
		Phone:            r.Phone,
		Address:          r.Address,
		HouseholdSize:    r.HouseholdSize,
		Needs:            r.Needs,
		Baskets:          r.Baskets,
		HygieneKits:      r.HygieneKits,
		Pads:             r.Pads,
		ChildDiapers:     r.ChildDiapers,
		ElderlyDiapers:   r.ElderlyDiapers,
		PixKeyType:       r.PixKeyType,
		PixKey:           r.PixKey,
		BasketsDelivered: r.Fulfillment.BasketsDelivered,
		FoodKgDelivered:  r.Fulfillment.FoodKgDelivered,
		ValueDelivered:   r.Fulfillment.ValueDelivered,
		DeliveredAt:      r.Fulfillment.DeliveredAt,
		Status:           string(r.Status),
		CDate:            r.CreatedAt,
	}
}

func delegationFromModel(m models.Delegation) (domain.Delegation, error) {
	var target domain.RequestRef
	switch {
	case m.DonationRequestID != nil && m.ReceiptRequestID == nil:
		target = domain.DonationRef{ID: *m.DonationRequestID}
	case m.ReceiptRequestID != nil && m.DonationRequestID == nil:
		target = domain.ReceiptRef{ID: *m.ReceiptRequestID}
	default:
		return domain.Delegation{}, domain.StateError{Reason: "delegation " + m.ID + " must reference exactly one request"}
	}
	return domain.Delegation{
		ID:            m.ID,
		ModeratorID:   m.ModeratorID,
		InstitutionID: m.InstitutionID,
		Target:        target,
		Status:        domain.DelegationStatus(m.Status),
		CreatedAt:     m.CDate,
	}, nil
}

func delegationToModel(d domain.Delegation) models.Delegation {
	m := models.Delegation{
		ID:            d.ID,
		ModeratorID:   d.ModeratorID,
		InstitutionID: d.InstitutionID,
		Status:        string(d.Status),
		CDate:         d.CreatedAt,
	}
	column, id := targetColumn(d.Target)
	switch column {
	case "donation_request_id":
		m.DonationRequestID = &id
	case "receipt_request_id":
		m.ReceiptRequestID = &id
	}
	return m
}

// targetColumn names the delegations column that holds ref.
func targetColumn(ref domain.RequestRef) (string, string) {
	switch ref := ref.(type) {
	case domain.DonationRef:
		return "donation_request_id", ref.ID
	case domain.ReceiptRef:
		return "receipt_request_id", ref.ID
	}
	return "", ""
}

func campaignFromModel(m models.Campaign) domain.Campaign {
	return domain.Campaign{
		ID:            m.ID,
		Title:         m.Title,
		Description:   m.Description,
		Location:      m.Location,
		VolunteerGoal: m.VolunteerGoal,
		FundingGoal:   m.FundingGoal,
		Raised:        m.Raised,
		Status:        domain.CampaignStatus(m.Status),
		RequesterID:   m.RequesterID,
		InstitutionID: m.InstitutionID,
		EndsAt:        m.EndsAt,
		CreatedAt:     m.CDate,
	}
}

func campaignToModel(c domain.Campaign) models.Campaign {
	return models.Campaign{
		ID:            c.ID,
		Title:         c.Title,
		Description:   c.Description,
		Location:      c.Location,
		VolunteerGoal: c.VolunteerGoal,
		FundingGoal:   c.FundingGoal,
		Raised:        c.Raised,
		Status:        string(c.Status),
		RequesterID:   c.RequesterID,
		InstitutionID: c.InstitutionID,
		EndsAt:        c.EndsAt,
		CDate:         c.CreatedAt,
	}
}

func auditFromModel(m models.AuditLog) domain.AuditLogEntry {
	return domain.AuditLogEntry{
		ID:          m.ID,
		ModeratorID: m.ModeratorID,
		Action:      m.Action,
		ItemType:    m.ItemType,
		ItemID:      m.ItemID,
		ItemName:    m.ItemName,
		Detail:      m.Detail,
		Origin:      m.Origin,
		CreatedAt:   m.CDate,
	}
}

func reportFromModel(m models.VolunteerReport) domain.VolunteerReport {
	return domain.VolunteerReport{
		ID:             m.ID,
		ReporterID:     m.ReporterID,
		ReportedID:     m.ReportedID,
		CampaignID:     m.CampaignID,
		Reason:         m.Reason,
		Description:    m.Description,
		Status:         domain.ReportStatus(m.Status),
		ModeratorID:    m.ModeratorID,
		ModeratorNotes: m.ModeratorNotes,
		ActionTaken:    domain.SanctionKind(m.ActionTaken),
		CreatedAt:      m.CDate,
		ResolvedAt:     m.ResolvedAt,
	}
}

func reportToModel(r domain.VolunteerReport) models.VolunteerReport {
	return models.VolunteerReport{
		ID:             r.ID,
		ReporterID:     r.ReporterID,
		ReportedID:     r.ReportedID,
		CampaignID:     r.CampaignID,
		Reason:         r.Reason,
		Description:    r.Description,
		Status:         string(r.Status),
		ModeratorID:    r.ModeratorID,
		ModeratorNotes: r.ModeratorNotes,
		ActionTaken:    string(r.ActionTaken),
		CDate:          r.CreatedAt,
		ResolvedAt:     r.ResolvedAt,
	}
}

func sanctionFromModel(m models.Sanction) domain.Sanction {
	return domain.Sanction{
		ID:             m.ID,
		PrincipalID:    m.PrincipalID,
		ModeratorID:    m.ModeratorID,
		ReportID:       m.ReportID,
		Kind:           domain.SanctionKind(m.Kind),
		Message:        m.Message,
		Reason:         m.Reason,
		SuspendedFrom:  m.SuspendedFrom,
		SuspendedUntil: m.SuspendedUntil,
		Seen:           m.Seen,
		SeenAt:         m.SeenAt,
		CreatedAt:      m.CDate,
	}
}

func sanctionToModel(s domain.Sanction) models.Sanction {
	return models.Sanction{
		ID:             s.ID,
		PrincipalID:    s.PrincipalID,
		ModeratorID:    s.ModeratorID,
		ReportID:       s.ReportID,
		Kind:           string(s.Kind),
		Message:        s.Message,
		Reason:         s.Reason,
		SuspendedFrom:  s.SuspendedFrom,
		SuspendedUntil: s.SuspendedUntil,
		Seen:           s.Seen,
		SeenAt:         s.SeenAt,
		CDate:          s.CreatedAt,
	}
}
