package builtins

import (
	"net/netip"

	"github.com/tomhrr/cosh/lang/machine"
)

// registerIP adds ip-parse and ip-in-prefix (spec.md §6.9), built on stdlib
// net/netip since no CIDR/IP-range library appears in the retrieved pack.
func registerIP(reg map[string]machine.Builtin) {
	reg["ip-parse"] = func(th *machine.Thread, stack *[]machine.Value) error {
		sv, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		s, ok := sv.(machine.String)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "ip-parse expects a string")
		}
		addr, err := netip.ParseAddr(string(s))
		if err != nil {
			return machine.NewError(machine.DomainError, "ip-parse: %v", err)
		}
		machine.Push(stack, machine.String(addr.String()))
		return nil
	}
	reg["ip-in-prefix"] = func(th *machine.Thread, stack *[]machine.Value) error {
		prefixV, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		prefixS, ok := prefixV.(machine.String)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "ip-in-prefix expects a prefix string")
		}
		addrV, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		addrS, ok := addrV.(machine.String)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "ip-in-prefix expects an address string")
		}
		prefix, err := netip.ParsePrefix(string(prefixS))
		if err != nil {
			return machine.NewError(machine.DomainError, "ip-in-prefix: bad prefix: %v", err)
		}
		addr, err := netip.ParseAddr(string(addrS))
		if err != nil {
			return machine.NewError(machine.DomainError, "ip-in-prefix: bad address: %v", err)
		}
		machine.Push(stack, machine.Bool(prefix.Contains(addr)))
		return nil
	}
}
