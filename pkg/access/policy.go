package access

import (
	"fmt"
	"strings"

	"luckee-incentive/pkg/domain"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

const policyModel = `
[request_definition]
r = sub, act

[policy_definition]
p = sub, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch(r.act, p.act)
`

// Policy grants every action to the single ledger admin.
type Policy struct {
	admin    string
	enforcer *casbin.Enforcer
}

func NewPolicy(admin string) (*Policy, error) {
	if strings.TrimSpace(admin) == "" {
		return nil, fmt.Errorf("%w: admin must not be empty", domain.ErrInvalidConfiguration)
	}

	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	if _, err := e.AddPolicy(admin, "*"); err != nil {
		return nil, err
	}

	return &Policy{admin: admin, enforcer: e}, nil
}

func (p *Policy) Admin() string {
	return p.admin
}

// Authorize returns domain.ErrUnauthorized unless caller may perform action.
func (p *Policy) Authorize(caller, action string) error {
	if p == nil || p.enforcer == nil {
		return domain.ErrUnauthorized
	}
	if err := Check(caller, p.admin); err != nil {
		return fmt.Errorf("%w: %s may not %s", err, caller, action)
	}
	ok, err := p.enforcer.Enforce(caller, action)
	if err != nil {
		return domain.SystemError(err)
	}
	if !ok {
		return fmt.Errorf("%w: %s may not %s", domain.ErrUnauthorized, caller, action)
	}
	return nil
}

// Check rejects an empty caller and any caller other than admin.
func Check(caller, admin string) error {
	if caller == "" || caller != admin {
		return domain.ErrUnauthorized
	}
	return nil
}
