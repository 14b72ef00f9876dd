package management

import (
	"homni_backend/internal/leads/domain"
	"homni_backend/internal/leads/repository"
	"homni_backend/internal/leads/transport"
)

// ToLeadResponse renders a lead for a viewer holding level. Customer fields
// and metadata are cut down to what the level allows.
func ToLeadResponse(lead repository.Lead, level domain.AccessLevel) transport.LeadResponse {
	resp := transport.LeadResponse{
		ID:            lead.ID,
		Title:         lead.Title,
		Description:   lead.Description,
		Category:      lead.Category,
		LeadType:      lead.LeadType,
		Status:        string(lead.Status),
		PipelineStage: string(lead.PipelineStage),
		ServiceType:   lead.ServiceType,
		CompanyID:     lead.CompanyID,
		SubmittedBy:   lead.SubmittedBy,
		AccessLevel:   string(level),
		CreatedAt:     lead.CreatedAt,
		UpdatedAt:     lead.UpdatedAt,
	}

	switch level {
	case domain.AccessBasic:
		resp.Customer = maskedCustomer(lead)
	case domain.AccessContact:
		resp.Customer = plainCustomer(lead)
	case domain.AccessFull:
		resp.Customer = plainCustomer(lead)
		resp.Metadata = lead.Metadata
	}
	return resp
}

func plainCustomer(lead repository.Lead) *transport.CustomerResponse {
	return &transport.CustomerResponse{
		Name:  lead.CustomerName,
		Email: lead.CustomerEmail,
		Phone: lead.CustomerPhone,
	}
}

func maskedCustomer(lead repository.Lead) *transport.CustomerResponse {
	return &transport.CustomerResponse{
		Name:   maskWith(lead.CustomerName, transport.MaskName),
		Email:  maskWith(lead.CustomerEmail, transport.MaskEmail),
		Phone:  maskWith(lead.CustomerPhone, transport.MaskPhone),
		Masked: true,
	}
}

func maskWith(value *string, mask func(string) string) *string {
	if value == nil || *value == "" {
		return nil
	}
	masked := mask(*value)
	return &masked
}

func toHistoryResponse(changes []repository.StatusChange) transport.StatusHistoryResponse {
	items := make([]transport.StatusChangeResponse, 0, len(changes))
	for _, c := range changes {
		items = append(items, transport.StatusChangeResponse{
			FromStatus: string(c.FromStatus),
			ToStatus:   string(c.ToStatus),
			ActorID:    c.ActorID,
			CreatedAt:  c.CreatedAt,
		})
	}
	return transport.StatusHistoryResponse{Items: items}
}
