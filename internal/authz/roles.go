// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package authz

import (
	"sort"

	"github.com/gatewarden/gatewarden/internal/models"
	"github.com/gatewarden/gatewarden/internal/monitor"
)

// Role tags per level. Tags classify roles for operational queries
// ("which group roles belong to the drills program"); they carry no
// enforcement weight.
var (
	userLevelRoleTags = map[string][]string{
		models.RoleAdmin:           {},
		models.RoleCustomer:        {},
		models.RoleCustomerAdmin:   {},
		models.RoleInternalManager: {TagDrills},
	}

	groupLevelRoleTags = map[string][]string{
		models.RoleAnalyst:       {TagDrills},
		models.RoleCustomer:      {},
		models.RoleCustomerAdmin: {},
		models.RoleGroupManager:  {TagDrills},
		models.RoleSystemOwner:   {TagDrills},
	}

	organizationLevelRoleTags = map[string][]string{
		models.RoleCustomerAdmin: {},
		models.RoleGroupManager:  {TagDrills},
		models.RoleSystemOwner:   {TagDrills},
	}
)

// TagDrills marks roles attached to the hacking (drills) program.
const TagDrills = "drills"

// Grant-permission action prefixes. Holding
// "grant_group_level_role:analyst" means the subject may grant the
// analyst role at group level.
const (
	GrantUserRolePrefix  = "grant_user_level_role:"
	GrantGroupRolePrefix = "grant_group_level_role:"
	GrantOrgRolePrefix   = "grant_organization_level_role:"
)

// Base action lists. Each list names only the actions introduced at
// that tier; buildActionSets folds the tiers into cumulative sets, so
// membership checks never walk a hierarchy at decision time.
var customerBaseActions = []string{
	"backend_api_resolvers_alert_resolve_alert",
	"backend_api_resolvers_event__do_add_event_comment",
	"backend_api_resolvers_event__do_download_event_file",
	"backend_api_resolvers_event_resolve_event",
	"backend_api_resolvers_event_resolve_events",
	"backend_api_resolvers_finding__do_add_finding_comment",
	"backend_api_resolvers_finding__do_update_client_description",
	"backend_api_resolvers_finding_resolve_finding",
	"backend_api_resolvers_forces_resolve_forces_executions",
	"backend_api_resolvers_internal_project_resolve_project_name",
	"backend_api_resolvers_project__do_add_project_comment",
	"backend_api_resolvers_project__do_add_tags",
	"backend_api_resolvers_project__do_create_project",
	"backend_api_resolvers_project__do_remove_tag",
	"backend_api_resolvers_project__get_comments",
	"backend_api_resolvers_project__get_events",
	"backend_api_resolvers_project_resolve_project",
	"backend_api_resolvers_resource__do_add_environments",
	"backend_api_resolvers_resource__do_add_files",
	"backend_api_resolvers_resource__do_add_repositories",
	"backend_api_resolvers_resource__do_download_file",
	"backend_api_resolvers_resource__do_remove_files",
	"backend_api_resolvers_resource__do_update_environment",
	"backend_api_resolvers_resource__do_update_repository",
	"backend_api_resolvers_resource_resolve_add_resources",
	"backend_api_resolvers_resource_resolve_resources",
	"backend_api_resolvers_vulnerability__do_delete_tags",
	"backend_api_resolvers_vulnerability__do_request_verification_vuln",
	"backend_api_resolvers_vulnerability__do_update_treatment_vuln",
}

var customerAdminBaseActions = []string{
	"backend_api_resolvers_finding__do_handle_acceptation",
	"backend_api_resolvers_me__get_tags",
	"backend_api_resolvers_project__do_reject_remove_project",
	"backend_api_resolvers_project__do_request_remove_project",
	"backend_api_resolvers_project__get_users",
	"backend_api_resolvers_tag_resolve_tag",
	"backend_api_resolvers_user__do_edit_user",
	"backend_api_resolvers_user__do_grant_user_access",
	"backend_api_resolvers_user__do_remove_user_access",
	"backend_api_resolvers_user_resolve_user",
	"backend_api_resolvers_user_resolve_user_list_projects",
	GrantUserRolePrefix + models.RoleCustomer,
	GrantUserRolePrefix + models.RoleCustomerAdmin,
	GrantGroupRolePrefix + models.RoleAnalyst,
	GrantGroupRolePrefix + models.RoleCustomer,
	GrantGroupRolePrefix + models.RoleCustomerAdmin,
}

var internalManagerBaseActions = []string{
	"backend_api_resolvers_internal_project_resolve_project_name",
	"backend_api_resolvers_me__get_tags",
	"backend_api_resolvers_project__do_create_project",
	"backend_api_resolvers_tag_resolve_tag",
	"backend_api_resolvers_user_resolve_user_list_projects",
}

var groupManagerBaseActions = []string{
	"backend_api_resolvers_alert_resolve_set_alert",
	"backend_api_resolvers_event__do_create_event",
	"backend_api_resolvers_event__do_solve_event",
	"backend_api_resolvers_project__get_drafts",
}

var analystBaseActions = []string{
	"backend_api_resolvers_alert_resolve_alert",
	"backend_api_resolvers_cache_resolve_invalidate_cache",
	"backend_api_resolvers_event__do_add_event_comment",
	"backend_api_resolvers_event__do_create_event",
	"backend_api_resolvers_event__do_download_event_file",
	"backend_api_resolvers_event__do_remove_event_evidence",
	"backend_api_resolvers_event__do_solve_event",
	"backend_api_resolvers_event__do_update_event_evidence",
	"backend_api_resolvers_event_resolve_event",
	"backend_api_resolvers_event_resolve_events",
	"backend_api_resolvers_finding__do_add_finding_comment",
	"backend_api_resolvers_finding__do_create_draft",
	"backend_api_resolvers_finding__do_delete_finding",
	"backend_api_resolvers_finding__do_reject_draft",
	"backend_api_resolvers_finding__do_remove_evidence",
	"backend_api_resolvers_finding__do_submit_draft",
	"backend_api_resolvers_finding__do_update_description",
	"backend_api_resolvers_finding__do_update_evidence",
	"backend_api_resolvers_finding__do_update_evidence_description",
	"backend_api_resolvers_finding__do_update_severity",
	"backend_api_resolvers_finding__get_analyst",
	"backend_api_resolvers_finding__get_historic_state",
	"backend_api_resolvers_finding__get_observations",
	"backend_api_resolvers_finding__get_pending_vulns",
	"backend_api_resolvers_finding_resolve_finding",
	"backend_api_resolvers_forces_resolve_forces_executions",
	"backend_api_resolvers_internal_project_resolve_project_name",
	"backend_api_resolvers_project__do_add_project_comment",
	"backend_api_resolvers_project__do_create_project",
	"backend_api_resolvers_project__get_comments",
	"backend_api_resolvers_project__get_drafts",
	"backend_api_resolvers_project__get_events",
	"backend_api_resolvers_project_resolve_project",
	"backend_api_resolvers_resource__do_download_file",
	"backend_api_resolvers_resource_resolve_resources",
	"backend_api_resolvers_vulnerability__do_approve_vulnerability",
	"backend_api_resolvers_vulnerability__do_delete_vulnerability",
	"backend_api_resolvers_vulnerability__do_request_verification_vuln",
	"backend_api_resolvers_vulnerability__do_upload_file",
	"backend_api_resolvers_vulnerability__do_verify_request_vuln",
	"backend_api_resolvers_vulnerability_resolve_vulnerability_resolve_analyst",
	"backend_api_resolvers_vulnerability_resolve_vulnerability_resolve_last_analyst",
}

var adminBaseActions = []string{
	"backend_api_resolvers_alert_resolve_set_alert",
	"backend_api_resolvers_event__do_create_event",
	"backend_api_resolvers_event__do_solve_event",
	"backend_api_resolvers_finding__do_approve_draft",
	"backend_api_resolvers_project__do_add_all_project_access",
	"backend_api_resolvers_project__do_remove_all_project_access",
	"backend_api_resolvers_project__get_drafts",
	"backend_api_resolvers_project_resolve_alive_projects",
	"backend_api_resolvers_subscription__do_post_broadcast_message",
	"backend_api_resolvers_user__do_add_user",
	GrantUserRolePrefix + models.RoleAdmin,
	GrantUserRolePrefix + models.RoleInternalManager,
	GrantGroupRolePrefix + models.RoleGroupManager,
	GrantGroupRolePrefix + models.RoleSystemOwner,
	GrantOrgRolePrefix + models.RoleCustomerAdmin,
	GrantOrgRolePrefix + models.RoleGroupManager,
	GrantOrgRolePrefix + models.RoleSystemOwner,
}

// Registry is the immutable role-to-action-set table. Built once,
// injected where decisions are made; the reporter receives a
// configuration-error signal whenever an unknown role reaches a
// membership check.
type Registry struct {
	actions  map[string]map[string]struct{}
	reporter monitor.Reporter
}

// NewRegistry builds the cumulative action table:
//
//	customer ⊂ customeradmin ⊂ internal_manager ⊂ admin
//	analyst ⊂ admin
//	group_manager = customeradmin + group management extras
//	system_owner  = group_manager
func NewRegistry(reporter monitor.Reporter) *Registry {
	customer := newSet(customerBaseActions)
	customerAdmin := union(customer, newSet(customerAdminBaseActions))
	internalManager := union(customerAdmin, newSet(internalManagerBaseActions))
	analyst := newSet(analystBaseActions)
	admin := union(internalManager, analyst, newSet(adminBaseActions))
	groupManager := union(customerAdmin, newSet(groupManagerBaseActions))

	return &Registry{
		actions: map[string]map[string]struct{}{
			models.RoleAdmin:           admin,
			models.RoleAnalyst:         analyst,
			models.RoleCustomer:        customer,
			models.RoleCustomerAdmin:   customerAdmin,
			models.RoleInternalManager: internalManager,
			models.RoleGroupManager:    groupManager,
			models.RoleSystemOwner:     groupManager,
		},
		reporter: reporter,
	}
}

// RoleActions returns the sorted action set of a role, nil for an
// unknown role. Used by validation and the admin surface, never on the
// decision path.
func (r *Registry) RoleActions(role string) []string {
	set, ok := r.actions[role]
	if !ok {
		return nil
	}
	return sorted(set)
}

// AllActions returns the union of every role's action set, sorted.
// For validation and tests only; enforcement always goes through
// MatchesPermission.
func (r *Registry) AllActions() []string {
	all := map[string]struct{}{}
	for _, set := range r.actions {
		for action := range set {
			all[action] = struct{}{}
		}
	}
	return sorted(all)
}

// UserLevelRoles returns the role names grantable at user level.
func UserLevelRoles() []string {
	return roleNames(userLevelRoleTags)
}

// GroupLevelRoles returns the role names grantable at group level.
func GroupLevelRoles() []string {
	return roleNames(groupLevelRoleTags)
}

// OrganizationLevelRoles returns the role names grantable at
// organization level.
func OrganizationLevelRoles() []string {
	return roleNames(organizationLevelRoleTags)
}

// GroupRolesWithTag returns the group-level roles carrying tag.
func GroupRolesWithTag(tag string) []string {
	var out []string
	for role, tags := range groupLevelRoleTags {
		for _, t := range tags {
			if t == tag {
				out = append(out, role)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

func newSet(actions []string) map[string]struct{} {
	set := make(map[string]struct{}, len(actions))
	for _, a := range actions {
		set[a] = struct{}{}
	}
	return set
}

func union(sets ...map[string]struct{}) map[string]struct{} {
	out := map[string]struct{}{}
	for _, set := range sets {
		for a := range set {
			out[a] = struct{}{}
		}
	}
	return out
}

func sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

func roleNames(table map[string][]string) []string {
	out := make([]string, 0, len(table))
	for role := range table {
		out = append(out, role)
	}
	sort.Strings(out)
	return out
}
