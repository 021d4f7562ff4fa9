package auditions

import (
	"context"
	"fmt"

	"github.com/julianstephens/callboard/internal/cli"
	"github.com/julianstephens/callboard/internal/models"
)

type CastAddCmd struct {
	Audition string `help:"Audition ID." required:""`
	User     string `help:"Cast member." required:""`
	Role     string `help:"Role name."`
}

func (c *CastAddCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	a, err := ctx.Store.GetAudition(bg, c.Audition)
	if err != nil {
		return err
	}
	if err := ctx.Store.AddCastMember(bg, models.CastMembership{
		UserID:     c.User,
		AuditionID: a.ID,
		RoleName:   c.Role,
	}); err != nil {
		return err
	}

	role := c.Role
	if role == "" {
		role = "ensemble"
	}
	fmt.Fprintf(ctx.Out(), "Cast %s as %s in %s\n", c.User, role, a.DisplayTitle())
	return nil
}

type TeamAddCmd struct {
	Audition string `help:"Audition ID." required:""`
	User     string `help:"Team member." required:""`
	Role     string `help:"Team role, e.g. 'stage manager'."`
}

func (c *TeamAddCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	a, err := ctx.Store.GetAudition(bg, c.Audition)
	if err != nil {
		return err
	}
	if err := ctx.Store.AddTeamMember(bg, models.TeamMembership{
		UserID:     c.User,
		AuditionID: a.ID,
		Role:       c.Role,
	}); err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out(), "Added %s to the production team of %s\n", c.User, a.DisplayTitle())
	return nil
}
