package dashboard

import (
	"fmt"

	"servicedesk/models"
	"servicedesk/view"
	"servicedesk/workflow"
)

// BoardView is a role dashboard ready to render
type BoardView struct {
	ListID   string
	Counts   string
	Vehicles []view.VehicleView
}

type boardStyle struct {
	listID      string
	counts      string
	ownerPrefix string
	showStatus  bool
	interactive bool
}

var boardStyles = map[models.Role]boardStyle{
	models.RoleGuard:        {listID: "guardList", counts: "%d pending", ownerPrefix: "Owner: ", showStatus: true},
	models.RoleReceptionist: {listID: "receptionList", counts: "Total: %d", showStatus: true, interactive: true},
	models.RoleAdvisor:      {listID: "advisorList", counts: "%d assigned", showStatus: true, interactive: true},
	models.RoleTechnician:   {listID: "technicianList", counts: "%d in queue", interactive: true},
	models.RoleQC:           {listID: "qcList", counts: "%d to inspect", interactive: true},
}

// Board filters vehicles for role and builds the cards with their actions
func Board(role models.Role, vehicles []models.Vehicle) BoardView {
	style := boardStyles[role]
	visible := workflow.Filter(role, vehicles)

	b := BoardView{
		ListID:   style.listID,
		Counts:   fmt.Sprintf(style.counts, len(visible)),
		Vehicles: make([]view.VehicleView, 0, len(visible)),
	}
	for _, v := range visible {
		card := view.VehicleView{
			ID:    v.ID,
			Plate: v.Plate,
			Meta:  style.ownerPrefix + v.Owner,
		}
		if style.showStatus {
			card.Meta += " • " + string(v.Status)
		}
		if style.interactive {
			card.ShowHistory = true
			card.History = v.History
			for _, t := range workflow.ActionsFor(role, v.Status) {
				card.Actions = append(card.Actions, view.ActionView{
					Label: t.Label,
					Href:  actionHref(role, v.ID, t.Action),
				})
			}
		}
		b.Vehicles = append(b.Vehicles, card)
	}
	return b
}

// AdminVehicles lists every vehicle with its history expanded
func AdminVehicles(vehicles []models.Vehicle) []view.VehicleView {
	out := make([]view.VehicleView, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, view.VehicleView{
			ID:          v.ID,
			Plate:       v.Plate,
			Meta:        v.Owner + " • " + string(v.Status),
			History:     v.History,
			ShowHistory: true,
			HistoryOpen: true,
		})
	}
	return out
}

// Contacts builds the admin contact table rows
func Contacts(msgs []models.ContactMessage) []view.ContactView {
	out := make([]view.ContactView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, view.ContactView{
			ID:          m.ID,
			Name:        m.Name,
			Email:       m.Email,
			ProblemType: m.ProblemType,
			Excerpt:     view.Excerpt(m.Description),
			Status:      string(m.Status),
		})
	}
	return out
}

func actionHref(role models.Role, vehicleID string, action workflow.Action) string {
	return fmt.Sprintf("/%s/vehicles/%s/%s", role, vehicleID, action)
}
