/*
Package machine holds the finite-state machines that guard organization relations.

Each machine is a flat table of (from, action, to) rules. Status values are never
stored; callers derive them from the relations that currently exist and consult
the table before mutating anything.

# Machines

  - Role: free -(hire)-> member -(appoint)-> on_duty, with dismiss and fire going back.
  - Position: vacant -(appoint)-> filled -(dismiss)-> vacant.

ValidateOneToOne complements the tables with the one-to-one assignment rules
(a role belongs to one organization, holds one position; a position is held by one role).
*/
package machine
