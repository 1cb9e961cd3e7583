// Copyright 2021 The Rode Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package indexmanager

import (
	"context"
	"fmt"
)

// NextVersionName probes for the next free physical index name for a logical
// name, starting at `<name>-0`. This is a point-in-time probe with no
// reservation: concurrent callers can race to the same suffix, and one of the
// subsequent create calls will fail. Serialize deployments per logical name
// if that matters.
func (em *EsIndexManager) NextVersionName(ctx context.Context, logicalName string) (string, error) {
	for version := 0; ; version++ {
		candidate := fmt.Sprintf("%s%s%d", logicalName, versionSeparator, version)

		exists, err := em.indexExists(ctx, candidate)
		if err != nil {
			return "", err
		}

		if !exists {
			return candidate, nil
		}
	}
}
