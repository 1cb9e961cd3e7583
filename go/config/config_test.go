package config

import (
	"io/ioutil"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("ElasticsearchConfig", func() {
	DescribeTable("validation", func(c ElasticsearchConfig, shouldErr bool) {
		err := c.IsValid()

		if shouldErr {
			Expect(err).To(HaveOccurred())
		} else {
			Expect(err).ToNot(HaveOccurred())
		}
	},
		Entry("valid url, refresh true", ElasticsearchConfig{
			URL:     "http://localhost:9200",
			Refresh: RefreshTrue,
		}, false),
		Entry("valid url, refresh wait_for", ElasticsearchConfig{
			URL:     "http://localhost:9200",
			Refresh: RefreshWaitFor,
		}, false),
		Entry("valid url, refresh false", ElasticsearchConfig{
			URL:     "http://localhost:9200",
			Refresh: RefreshFalse,
		}, false),
		Entry("valid url, invalid refresh option", ElasticsearchConfig{
			URL:     "http://localhost:9200",
			Refresh: "somethingInvalid",
		}, true),
		Entry("missing url", ElasticsearchConfig{
			Refresh: RefreshTrue,
		}, true),
	)

	Describe("Load", func() {
		It("should apply defaults when no file is given", func() {
			c, err := Load("")

			Expect(err).ToNot(HaveOccurred())
			Expect(c.URL).To(Equal("http://localhost:9200"))
			Expect(c.Refresh).To(Equal(RefreshOption(RefreshTrue)))
		})

		It("should read connection details from the environment", func() {
			expectedUrl := "http://" + fake.DomainName() + ":9200"
			expectedUsername := fake.Username()
			expectedPassword := fake.LetterN(12)

			os.Setenv("ELASTICSEARCH_URL", expectedUrl)
			os.Setenv("ELASTICSEARCH_USERNAME", expectedUsername)
			os.Setenv("ELASTICSEARCH_PASSWORD", expectedPassword)
			defer func() {
				os.Unsetenv("ELASTICSEARCH_URL")
				os.Unsetenv("ELASTICSEARCH_USERNAME")
				os.Unsetenv("ELASTICSEARCH_PASSWORD")
			}()

			c, err := Load("")

			Expect(err).ToNot(HaveOccurred())
			Expect(c.URL).To(Equal(expectedUrl))
			Expect(c.Username).To(Equal(expectedUsername))
			Expect(c.Password).To(Equal(expectedPassword))
		})

		It("should read values from a config file", func() {
			dir, err := ioutil.TempDir("", "config")
			Expect(err).ToNot(HaveOccurred())
			defer os.RemoveAll(dir)

			expectedUrl := "http://" + fake.DomainName() + ":9200"
			configFile := filepath.Join(dir, "elasticsearch.yaml")
			contents := []byte("url: " + expectedUrl + "\nrefresh: wait_for\n")
			Expect(ioutil.WriteFile(configFile, contents, 0644)).To(Succeed())

			c, err := Load(configFile)

			Expect(err).ToNot(HaveOccurred())
			Expect(c.URL).To(Equal(expectedUrl))
			Expect(c.Refresh).To(Equal(RefreshOption(RefreshWaitFor)))
		})

		It("should return an error when the file does not exist", func() {
			_, err := Load(filepath.Join(os.TempDir(), fake.LetterN(10)+".yaml"))

			Expect(err).To(HaveOccurred())
		})
	})
})
