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
	"net/http"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/rode/es-index-lifecycle/go/v1beta1/esutil"
)

var _ = Describe("NextVersionName", func() {
	var (
		ctx             context.Context
		mockEsTransport *esutil.MockEsTransport
		manager         *EsIndexManager
		logicalName     string
	)

	BeforeEach(func() {
		ctx = context.Background()
		logicalName = fake.LetterN(10)
		mockEsTransport = &esutil.MockEsTransport{}
		manager = newTestManager(mockEsTransport)
	})

	It("should start at version zero", func() {
		mockEsTransport.PreparedHttpResponses = []*http.Response{statusResponse(http.StatusNotFound)}

		name, err := manager.NextVersionName(ctx, logicalName)

		Expect(err).ToNot(HaveOccurred())
		Expect(name).To(Equal(versionedName(logicalName, 0)))
		Expect(mockEsTransport.ReceivedHttpRequests[0].Method).To(Equal(http.MethodHead))
		Expect(mockEsTransport.ReceivedHttpRequests[0].URL.Path).To(Equal("/" + versionedName(logicalName, 0)))
	})

	It("should probe past versions that already exist", func() {
		mockEsTransport.PreparedHttpResponses = []*http.Response{
			statusResponse(http.StatusOK),
			statusResponse(http.StatusOK),
			statusResponse(http.StatusNotFound),
		}

		name, err := manager.NextVersionName(ctx, logicalName)

		Expect(err).ToNot(HaveOccurred())
		Expect(name).To(Equal(versionedName(logicalName, 2)))
		Expect(mockEsTransport.ReceivedHttpRequests[1].URL.Path).To(Equal("/" + versionedName(logicalName, 1)))
	})

	It("should surface an unexpected status", func() {
		mockEsTransport.PreparedHttpResponses = []*http.Response{statusResponse(http.StatusInternalServerError)}

		_, err := manager.NextVersionName(ctx, logicalName)

		Expect(err).To(HaveOccurred())
	})
})
