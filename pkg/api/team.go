package api

import (
	"context"
	"fmt"

	"github.com/complyeasy/complyeasy/pkg/access"
	"github.com/complyeasy/complyeasy/pkg/stores"
	"github.com/complyeasy/complyeasy/pkg/telemetry"
)

// TeamService manages the members of the organization.
type TeamService struct {
	c *core
}

// List returns every member.
func (s *TeamService) List(ctx context.Context) (_ []stores.User, err error) {
	cl, err := s.c.start(ctx, string(access.OpTeamList), access.OpTeamList)
	if err != nil {
		return nil, err
	}
	defer func() { err = cl.end(err) }()

	return s.c.repos.Users.GetAll(cl.ctx())
}

// Invite adds a member. Unlike self registration the default role is viewer.
func (s *TeamService) Invite(ctx context.Context, user stores.User) (_ stores.User, err error) {
	cl, err := s.c.start(ctx, string(access.OpTeamInvite), access.OpTeamInvite)
	if err != nil {
		return stores.User{}, err
	}
	defer func() { err = cl.end(err) }()

	if user.Role == "" {
		user.Role = stores.RoleViewer
	}
	if user.OrganizationID == "" {
		user.OrganizationID = cl.actor.OrganizationID
	}
	user, err = s.c.prepareUser(cl.ctx(), user)
	if err != nil {
		return stores.User{}, err
	}
	if err := s.c.repos.Users.Create(cl.ctx(), user); err != nil {
		return stores.User{}, err
	}

	cl.publish(telemetry.EventTypeUserInvited, user.ID, fmt.Sprintf("%s invited as %s", user.Email, user.Role))
	return user, cl.audit(fmt.Sprintf("Invited %s as %s", user.Email, user.Role))
}

// UpdateRole changes the role of a member.
func (s *TeamService) UpdateRole(ctx context.Context, id string, role stores.Role) (_ stores.User, err error) {
	cl, err := s.c.start(ctx, string(access.OpTeamUpdateRole), access.OpTeamUpdateRole)
	if err != nil {
		return stores.User{}, err
	}
	defer func() { err = cl.end(err) }()

	if !role.Valid() {
		return stores.User{}, newError(KindInvalid, cl.op, fmt.Sprintf("unknown role %q", role), nil)
	}
	user, found, err := s.c.repos.Users.FindByID(cl.ctx(), id)
	if err != nil {
		return stores.User{}, err
	}
	if !found {
		return stores.User{}, newError(KindNotFound, cl.op, fmt.Sprintf("user %s not found", id), nil)
	}
	if user.ID == cl.actor.ID && role != stores.RoleAdmin {
		return stores.User{}, newError(KindConflict, cl.op, "admins cannot demote themselves", nil)
	}

	user.Role = role
	if err := s.c.repos.Users.Update(cl.ctx(), user); err != nil {
		return stores.User{}, err
	}

	cl.publish(telemetry.EventTypeUserRoleChanged, user.ID, fmt.Sprintf("%s is now %s", user.Email, role))
	return user, cl.audit(fmt.Sprintf("Role of %s changed to %s", user.Email, role))
}

// Remove deletes a member. Members cannot remove themselves.
func (s *TeamService) Remove(ctx context.Context, id string) (err error) {
	cl, err := s.c.start(ctx, string(access.OpTeamRemove), access.OpTeamRemove)
	if err != nil {
		return err
	}
	defer func() { err = cl.end(err) }()

	if id == cl.actor.ID {
		return newError(KindConflict, cl.op, "cannot remove yourself", nil)
	}
	removed, err := s.c.repos.Users.Delete(cl.ctx(), id)
	if err != nil {
		return err
	}
	if !removed {
		return newError(KindNotFound, cl.op, fmt.Sprintf("user %s not found", id), nil)
	}

	cl.publish(telemetry.EventTypeUserRemoved, id, fmt.Sprintf("user %s removed", id))
	return cl.audit(fmt.Sprintf("Removed user %s", id))
}
