package calculator

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/tallybot/tally/internal/models"
	"github.com/tallybot/tally/internal/money"
)

// Statements solves the settlement problem on a snapshot of the ledger and
// returns the transfers of an optimal solution: one that partitions the
// users into the maximum number of balanced components, settling each
// component with a greedy spanning tree. The ledger is not modified.
//
// The combinatorial search runs on normalized statuses (absolute balances in
// integer cents); the emitted amounts come from the decimal balances.
func (l *Ledger) Statements() []models.Statement {
	if len(l.statuses) == 0 {
		return []models.Statement{}
	}

	s := &solver{
		statuses: l.Balances(),
		norm:     make(map[models.User]int64, len(l.statuses)),
	}
	var creditors, debtors []models.User
	for user, status := range s.statuses {
		if status.Sign() > 0 {
			creditors = append(creditors, user)
		} else {
			debtors = append(debtors, user)
		}
		s.norm[user] = money.Normalize(status)
	}
	// ascending by normalized status; ties broken by name so that the
	// output is reproducible
	s.sortByNorm(creditors)
	s.sortByNorm(debtors)

	statements := s.reducePairs(&creditors, &debtors)

	var totalSum int64
	for _, creditor := range creditors {
		totalSum += s.norm[creditor]
	}

	if len(creditors) > 0 {
		// no component can be worth less than the largest single user it
		// must contain
		targetSum := max(s.norm[creditors[0]], s.norm[debtors[0]])
		creditorComponents, debtorComponents := s.partition(creditors, debtors, 2, totalSum, targetSum)
		for i := range creditorComponents {
			statements = append(statements, s.treeSettle(creditorComponents[i], debtorComponents[i])...)
		}
	}
	return statements
}

// solver carries the working state of a single settlement computation.
type solver struct {
	statuses map[models.User]decimal.Decimal
	norm     map[models.User]int64
}

func (s *solver) sortByNorm(users []models.User) {
	slices.SortFunc(users, func(a, b models.User) int {
		if c := s.norm[a] - s.norm[b]; c != 0 {
			if c < 0 {
				return -1
			}
			return 1
		}
		return cmpString(a.Name, b.Name)
	})
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// reducePairs peels off creditor/debtor pairs with identical normalized
// status: such a pair always forms a two-node component of some optimal
// solution, so removing it shrinks the search without losing optimality.
// Both lists must be sorted; they are modified in place.
func (s *solver) reducePairs(creditors, debtors *[]models.User) []models.Statement {
	statements := []models.Statement{}
	cs, ds := *creditors, *debtors
	for ci := 0; ci < len(cs) && len(ds) > 0; {
		creditor := cs[ci]
		if s.norm[creditor] > s.norm[ds[len(ds)-1]] {
			// every remaining creditor outweighs every debtor
			break
		}
		matched := false
		for di, debtor := range ds {
			switch {
			case s.norm[creditor] < s.norm[debtor]:
				// every remaining debtor outweighs this creditor
			case s.norm[creditor] == s.norm[debtor]:
				statements = append(statements, models.Statement{
					Debtor:   debtor,
					Creditor: creditor,
					Amount:   s.statuses[creditor],
				})
				cs = slices.Delete(cs, ci, ci+1)
				ds = slices.Delete(ds, di, di+1)
				matched = true
			default:
				continue
			}
			break
		}
		if !matched {
			ci++
		}
	}
	*creditors, *debtors = cs, ds
	return statements
}

// partition searches for the partition of the balanced creditor/debtor lists
// into the maximum number of balanced components. targetComponents is one
// more than the component count of the best solution known so far; totalSum
// is the value of either list; targetSum is the smallest component value
// still worth trying. The returned slices pair creditor and debtor sides of
// each component.
func (s *solver) partition(creditors, debtors []models.User, targetComponents int, totalSum, targetSum int64) ([][]models.User, [][]models.User) {
	// the trivial solution is the single component holding everyone
	creditorComponents := [][]models.User{creditors}
	debtorComponents := [][]models.User{debtors}

	// a solution with targetComponents components must contain one worth at
	// most totalSum/targetComponents, so larger target sums cannot help
	for targetSum <= totalSum/int64(targetComponents) {
		creditorCandidates := s.allSubsets(creditors, targetSum)
		debtorCandidates := s.allSubsets(debtors, targetSum)
		for _, creditorCandidate := range creditorCandidates {
			for _, debtorCandidate := range debtorCandidates {
				restCreditors := difference(creditors, creditorCandidate)
				restDebtors := difference(debtors, debtorCandidate)
				// by minimality of the component just split off, the
				// remaining components are worth at least targetSum
				sum := max(targetSum, s.norm[restCreditors[0]], s.norm[restDebtors[0]])
				candidateCreditors, candidateDebtors := s.partition(
					restCreditors, restDebtors,
					max(targetComponents-1, 2), totalSum-targetSum, sum)

				if len(candidateCreditors) >= len(creditorComponents) {
					creditorComponents = append([][]models.User{creditorCandidate}, candidateCreditors...)
					debtorComponents = append([][]models.User{debtorCandidate}, candidateDebtors...)
					// only solutions with at least one more component are
					// interesting from here on
					targetComponents = len(creditorComponents) + 1
				}
			}
		}
		targetSum++
	}
	return creditorComponents, debtorComponents
}

// allSubsets enumerates every subset of the sorted user list whose
// normalized value equals sum, as a depth-first walk over a stack of
// indices. Subsets are produced exactly once, in lexicographic index order.
func (s *solver) allSubsets(users []models.User, sum int64) [][]models.User {
	var results [][]models.User
	stack := []int{0}
	for {
		sum = s.extend(users, &stack, sum)
		if sum == 0 {
			subset := make([]models.User, len(stack))
			for i, index := range stack {
				subset[i] = users[index]
			}
			results = append(results, subset)
		}
		// result or not, backtrack: pop the last index and resume from its
		// successor
		for len(stack) > 0 {
			index := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			sum += s.norm[users[index]]
			if index+1 < len(users) {
				stack = append(stack, index+1)
				break
			}
		}
		// once the first stacked user alone outweighs the remaining sum, no
		// further subset can reach it
		if len(stack) == 0 || s.norm[users[stack[0]]] > sum {
			break
		}
	}
	return results
}

// extend greedily pushes successive indices while the running value stays
// below the target. Returns 0 when the target is hit exactly, otherwise the
// remaining difference.
func (s *solver) extend(users []models.User, stack *[]int, target int64) int64 {
	index := (*stack)[len(*stack)-1]
	*stack = (*stack)[:len(*stack)-1]
	for index < len(users) {
		value := s.norm[users[index]]
		switch {
		case value < target:
			*stack = append(*stack, index)
			target -= value
			index++
		case value == target:
			*stack = append(*stack, index)
			return 0
		default:
			return target
		}
	}
	return target
}

// treeSettle settles one balanced component greedily: repeatedly transfer
// min(smallest credit, smallest debt) between the two front users, dropping
// whoever reaches zero. At most len(creditors)+len(debtors)-1 transfers.
func (s *solver) treeSettle(creditors, debtors []models.User) []models.Statement {
	var statements []models.Statement
	cs := slices.Clone(creditors)
	ds := slices.Clone(debtors)
	balances := make(map[models.User]decimal.Decimal, len(cs)+len(ds))
	for _, user := range cs {
		balances[user] = s.statuses[user]
	}
	for _, user := range ds {
		balances[user] = s.statuses[user]
	}
	for len(cs) > 0 {
		credit := balances[cs[0]]
		debit := balances[ds[0]].Neg()
		switch credit.Cmp(debit) {
		case 1:
			statements = append(statements, models.Statement{Debtor: ds[0], Creditor: cs[0], Amount: debit})
			balances[cs[0]] = credit.Sub(debit)
			ds = ds[1:]
		case -1:
			statements = append(statements, models.Statement{Debtor: ds[0], Creditor: cs[0], Amount: credit})
			balances[ds[0]] = credit.Sub(debit)
			cs = cs[1:]
		default:
			statements = append(statements, models.Statement{Debtor: ds[0], Creditor: cs[0], Amount: debit})
			cs = cs[1:]
			ds = ds[1:]
		}
	}
	return statements
}

// difference returns the users of list not present in remove, preserving
// order.
func difference(list, remove []models.User) []models.User {
	removed := make(map[models.User]struct{}, len(remove))
	for _, user := range remove {
		removed[user] = struct{}{}
	}
	rest := make([]models.User, 0, len(list)-len(remove))
	for _, user := range list {
		if _, ok := removed[user]; !ok {
			rest = append(rest, user)
		}
	}
	return rest
}
