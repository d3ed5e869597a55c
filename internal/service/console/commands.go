package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/oshokin/crew-alert/internal/auth"
	"github.com/oshokin/crew-alert/internal/domain/crew"
)

// timeLayout renders timestamps in console tables.
const timeLayout = "2006-01-02 15:04:05"

// unassigned is the vehicle argument that removes a member from its vehicle.
const unassigned = "none"

// Health prints whether crew-server is serving.
func (c *Console) Health(ctx context.Context) error {
	if err := c.backend.Health(ctx); err != nil {
		return err
	}

	_, err := fmt.Fprintln(c.out, "crew-server is serving")

	return err
}

// Login checks an access code and prints the role it grants.
func (c *Console) Login(ctx context.Context, code string) error {
	role, err := c.backend.Login(ctx, code)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(c.out, "Logged in as %s\n", role)

	return err
}

// Apply files a registration request.
func (c *Console) Apply(ctx context.Context, firstName, lastName string) error {
	request, err := c.backend.SubmitRegistration(ctx, c.who, firstName, lastName)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(c.out, "Registration %s submitted for %s\n", request.ID, request.FullName())

	return err
}

// Pending prints pending registrations in submission order.
func (c *Console) Pending(ctx context.Context) error {
	requests, err := c.backend.ListPending(ctx, c.who)
	if err != nil {
		return err
	}

	return c.table(func(w io.Writer) {
		fmt.Fprintln(w, "REQUEST\tNAME\tSUBMITTED")

		for _, r := range requests {
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.ID, r.FullName(), formatTime(r.SubmittedAt))
		}
	})
}

// Accept approves a registration. An empty rank means the lowest rank.
func (c *Console) Accept(ctx context.Context, requestID, rankName string) error {
	rank := crew.LowestRank

	if rankName != "" {
		parsed, err := crew.ParseRank(rankName)
		if err != nil {
			return err
		}

		rank = parsed
	}

	member, err := c.backend.Accept(ctx, c.who, crew.RequestID(requestID), rank)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(c.out, "Accepted %s as member #%d (%s)\n", member.FullName, member.ID, member.Rank)

	return err
}

// Reject discards a registration.
func (c *Console) Reject(ctx context.Context, requestID string) error {
	request, err := c.backend.Reject(ctx, c.who, crew.RequestID(requestID))
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(c.out, "Rejected %s (%s)\n", request.FullName(), request.ID)

	return err
}

// Assign moves a member to a vehicle, or off its vehicle for "none".
func (c *Console) Assign(ctx context.Context, memberArg, vehicleArg string) error {
	memberID, err := ParseMemberID(memberArg)
	if err != nil {
		return err
	}

	vehicleID, err := ParseVehicleTarget(vehicleArg)
	if err != nil {
		return err
	}

	member, err := c.backend.Assign(ctx, c.who, memberID, vehicleID)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(c.out, "Member #%d %s is now on %s\n", member.ID, member.FullName, formatVehicle(member.AssignedVehicleID))

	return err
}

// Members prints the roster visible to the caller.
func (c *Console) Members(ctx context.Context) error {
	members, err := c.backend.ListMembers(ctx, c.who)
	if err != nil {
		return err
	}

	return c.table(func(w io.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tRANK\tVEHICLE\tREGISTERED")

		for _, m := range members {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				m.ID, m.FullName, m.Rank, formatVehicle(m.AssignedVehicleID), formatTime(m.RegisteredAt))
		}
	})
}

// Vehicles prints the fleet with the current crews.
func (c *Console) Vehicles(ctx context.Context) error {
	vehicles, err := c.backend.ListVehicles(ctx, c.who)
	if err != nil {
		return err
	}

	return c.table(func(w io.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tCREW")

		for _, v := range vehicles {
			fmt.Fprintf(w, "%d\t%s\t%s\n", v.ID, v.Name, formatMembers(v.Crew))
		}
	})
}

// Crew prints the members assigned to one vehicle.
func (c *Console) Crew(ctx context.Context, vehicleArg string) error {
	vehicleID, err := ParseVehicleID(vehicleArg)
	if err != nil {
		return err
	}

	members, err := c.backend.CrewOf(ctx, c.who, vehicleID)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(c.out, "Crew of vehicle #%d: %s\n", vehicleID, formatMembers(members))

	return err
}

// Send creates a ticket for a vehicle's crew.
func (c *Console) Send(ctx context.Context, vehicleArg string, words []string) error {
	vehicleID, err := ParseVehicleID(vehicleArg)
	if err != nil {
		return err
	}

	result, err := c.backend.Send(ctx, c.who, vehicleID, strings.Join(words, " "))
	if err != nil {
		return err
	}

	ticket := result.Ticket

	_, err = fmt.Fprintf(c.out, "Ticket #%d sent to %s: %s\n",
		ticket.ID, ticket.VehicleName, formatMembers(ticket.RecipientIDs))
	if err == nil && result.Warning != "" {
		_, err = fmt.Fprintf(c.out, "Warning: %s\n", result.Warning)
	}

	return err
}

// Tickets prints tickets newest first, optionally for one vehicle.
func (c *Console) Tickets(ctx context.Context, vehicleArg string) error {
	var filter *crew.VehicleID

	if vehicleArg != "" {
		vehicleID, err := ParseVehicleID(vehicleArg)
		if err != nil {
			return err
		}

		filter = &vehicleID
	}

	reports, err := c.backend.ListTickets(ctx, c.who, filter)
	if err != nil {
		return err
	}

	return c.table(func(w io.Writer) {
		fmt.Fprintln(w, "ID\tVEHICLE\tSENDER\tCREATED\tRECIPIENTS\tDELIVERED\tFAILED\tMESSAGE")

		for _, r := range reports {
			t := r.Ticket
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
				t.ID, t.VehicleName, t.Sender, formatTime(t.CreatedAt), formatMembers(t.RecipientIDs),
				r.Delivery.Delivered, r.Delivery.Failed, t.Message)
		}
	})
}

// Log prints the audit log, newest first.
func (c *Console) Log(ctx context.Context) error {
	entries, err := c.backend.ListLog(ctx, c.who)
	if err != nil {
		return err
	}

	return c.table(func(w io.Writer) {
		for _, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\n", e.ID, formatTime(e.Timestamp), e.Text)
		}
	})
}

// HashCode prints the argon2id hash of an access code for the settings file.
func HashCode(out io.Writer, code string) error {
	hash, err := auth.HashCode(code, auth.DefaultParams)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, hash)

	return err
}

func (c *Console) table(render func(w io.Writer)) error {
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	render(w)

	return w.Flush()
}

// errBadID is returned for ids that are not positive integers.
var errBadID = errors.New("id must be a positive integer")

// ParseMemberID parses a member id argument.
func ParseMemberID(s string) (crew.MemberID, error) {
	id, err := parseID(s)

	return crew.MemberID(id), err
}

// ParseVehicleID parses a vehicle id argument.
func ParseVehicleID(s string) (crew.VehicleID, error) {
	id, err := parseID(s)

	return crew.VehicleID(id), err
}

// ParseVehicleTarget parses an assignment target: a vehicle id or "none".
func ParseVehicleTarget(s string) (*crew.VehicleID, error) {
	if strings.EqualFold(strings.TrimSpace(s), unassigned) {
		return nil, nil //nolint:nilnil // nil means unassigned.
	}

	id, err := ParseVehicleID(s)
	if err != nil {
		return nil, err
	}

	return &id, nil
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %w: %q", crew.ErrInvalidInput, errBadID, s)
	}

	return id, nil
}

func formatVehicle(id *crew.VehicleID) string {
	if id == nil {
		return "-"
	}

	return "#" + strconv.FormatUint(uint64(*id), 10)
}

func formatMembers(ids []crew.MemberID) string {
	if len(ids) == 0 {
		return "-"
	}

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "#" + strconv.FormatUint(uint64(id), 10)
	}

	return strings.Join(parts, ", ")
}

func formatTime(t time.Time) string {
	return t.Local().Format(timeLayout)
}
