package workflow

import "servicedesk/models"

// visible lists the statuses each role's dashboard shows, in display order.
var visible = map[models.Role][]models.VehicleStatus{
	models.RoleGuard: {models.StatusNew, models.StatusEntered},
	models.RoleReceptionist: {
		models.StatusEntered,
		models.StatusReadyForDelivery,
		models.StatusDelivered,
		models.StatusWithAdvisor,
		models.StatusWithTechnician,
		models.StatusServiceDone,
		models.StatusWithQC,
	},
	models.RoleAdvisor:    {models.StatusWithAdvisor, models.StatusServiceDone},
	models.RoleTechnician: {models.StatusWithTechnician},
	models.RoleQC:         {models.StatusWithQC},
}

// VisibleStatuses returns the statuses shown on role's dashboard. Admin sees every status.
func VisibleStatuses(role models.Role) []models.VehicleStatus {
	if role == models.RoleAdmin {
		out := make([]models.VehicleStatus, len(models.Statuses))
		copy(out, models.Statuses)
		return out
	}
	statuses := visible[role]
	out := make([]models.VehicleStatus, len(statuses))
	copy(out, statuses)
	return out
}

// Filter keeps the vehicles visible on role's dashboard, preserving input order.
func Filter(role models.Role, vehicles []models.Vehicle) []models.Vehicle {
	allowed := make(map[models.VehicleStatus]bool)
	for _, s := range VisibleStatuses(role) {
		allowed[s] = true
	}

	filtered := []models.Vehicle{}
	for _, v := range vehicles {
		if allowed[v.Status] {
			filtered = append(filtered, v)
		}
	}
	return filtered
}
