// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package authz

// -----------------------------------------------------------------------------
// Decision Reasons
// These identify which path of the policy admitted a requester.
// They are diagnostic only and never change what the requester is told.
// -----------------------------------------------------------------------------

type Reason string

const (
	// ReasonAllowList means the requester id is in the configured allow-list.
	ReasonAllowList Reason = "allow_list"

	// ReasonRole means the requester holds a role named like the operator role.
	ReasonRole Reason = "role"

	// ReasonNone means neither path matched.
	ReasonNone Reason = "none"
)

// Decision is the outcome of one authorization check
type Decision struct {
	Allowed bool
	Reason  Reason
}
